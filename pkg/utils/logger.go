package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger represents the application logger. Messages go to a rotating log
// file under .querysynth so long synthesis runs don't clutter stdout.
type Logger struct {
	logger        *log.Logger
	jsonMode      bool
	correlationID string
}

var (
	globalLogger *Logger
	once         sync.Once
)

// GetLogger returns the singleton instance of Logger.
// It initializes the logger with a file handler that rotates logs.
func GetLogger() *Logger {
	once.Do(func() {
		logFile := &lumberjack.Logger{
			Filename:   ".querysynth/querysynth.log",
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		globalLogger = &Logger{
			logger: log.New(logFile, "", log.LstdFlags),
		}
	})
	if os.Getenv("QUERYSYNTH_JSON_LOGS") == "1" {
		globalLogger.jsonMode = true
	}
	if cid := os.Getenv("QUERYSYNTH_CORRELATION_ID"); cid != "" {
		globalLogger.correlationID = cid
	}
	return globalLogger
}

// SetJSONMode switches the logger between plain and JSON-line output. The
// QUERYSYNTH_JSON_LOGS environment variable takes precedence when set.
func (w *Logger) SetJSONMode(enabled bool) {
	if os.Getenv("QUERYSYNTH_JSON_LOGS") == "1" {
		return
	}
	w.jsonMode = enabled
}

// Close closes the logger resources.
func (w *Logger) Close() error {
	if logFile, ok := w.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}

// Log logs a general message only to the log file.
func (w *Logger) Log(message string) {
	if w.jsonMode {
		_ = json.NewEncoder(w.logger.Writer()).Encode(map[string]any{"level": "info", "msg": message, "cid": w.correlationID})
		return
	}
	w.logger.Print(message)
}

// Logf logs a formatted general message only to the log file.
func (w *Logger) Logf(format string, v ...interface{}) {
	if w.jsonMode {
		w.Log(fmt.Sprintf(format, v...))
		return
	}
	w.logger.Printf(format, v...)
}

// LogError logs an error to the log file.
func (w *Logger) LogError(err error) {
	if w.jsonMode {
		_ = json.NewEncoder(w.logger.Writer()).Encode(map[string]any{"level": "error", "error": err.Error(), "cid": w.correlationID})
		return
	}
	w.logger.Printf("Error: %s", err)
}

// LogProcessStep logs the current step in a synthesis run.
func (w *Logger) LogProcessStep(step string) {
	w.logger.Printf("Process Step: %s", step)
}
