// Package webui provides the web server with embedded assets, the NDJSON
// synthesis endpoint, and the live event WebSocket.
package webui

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alantheprice/querysynth/pkg/config"
	"github.com/alantheprice/querysynth/pkg/docs"
	"github.com/alantheprice/querysynth/pkg/events"
	"github.com/alantheprice/querysynth/pkg/examplegen"
	"github.com/alantheprice/querysynth/pkg/llm"
)

//go:embed static/*
var staticFiles embed.FS

// ConnectionInfo stores metadata about a WebSocket connection.
type ConnectionInfo struct {
	SessionID   string
	ConnectedAt time.Time
}

// WebServer serves the synthesis API and UI.
type WebServer struct {
	client      llm.Client
	selection   llm.Client
	eventBus    *events.EventBus
	cfg         *config.Config
	store       docs.Store
	examples    *examplegen.Generator
	runs        *runRegistry
	port        int
	server      *http.Server
	upgrader    websocket.Upgrader
	connections sync.Map // map[*websocket.Conn]*ConnectionInfo
	isRunning   bool
	mutex       sync.RWMutex
	startTime   time.Time
}

// NewWebServer creates a web server bound to the given LLM client and event bus.
func NewWebServer(client llm.Client, eventBus *events.EventBus, cfg *config.Config) *WebServer {
	port := cfg.WebPort
	if port == 0 {
		port = 8765
	}

	return &WebServer{
		client:    client,
		selection: client,
		eventBus:  eventBus,
		cfg:       cfg,
		store:     docs.NewEmbeddedStore(),
		examples:  examplegen.NewGenerator(client),
		runs:      newRunRegistry(),
		port:      port,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
			},
		},
		startTime: time.Now(),
	}
}

// SetSelectionClient overrides the client used for documentation selection,
// letting selection run on a cheaper model than candidate generation.
func (ws *WebServer) SetSelectionClient(client llm.Client) {
	if client != nil {
		ws.selection = client
	}
}

// Handler builds the route table. Exposed separately so tests can drive the
// handlers without binding a listener.
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", ws.handleIndex)
	mux.HandleFunc("/ws", ws.handleWebSocket)
	mux.HandleFunc("/api/synthesize", ws.handleSynthesize)
	mux.HandleFunc("/api/examples", ws.handleExamples)
	mux.HandleFunc("/api/runs", ws.handleRuns)
	mux.HandleFunc("/api/runs/", ws.handleRunAction)
	mux.HandleFunc("/health", ws.handleHealth)
	return mux
}

// Start starts the web server and shuts it down when ctx is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	ws.mutex.Lock()
	if ws.isRunning {
		ws.mutex.Unlock()
		return fmt.Errorf("web server is already running")
	}
	ws.isRunning = true
	ws.mutex.Unlock()

	ws.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", ws.port),
		Handler: ws.Handler(),
	}

	go func() {
		log.Printf("Web UI starting at http://localhost:%d", ws.port)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Web server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		ws.Shutdown()
	}()

	return nil
}

// Shutdown gracefully shuts down the web server.
func (ws *WebServer) Shutdown() error {
	ws.mutex.Lock()
	if !ws.isRunning {
		ws.mutex.Unlock()
		return nil
	}
	ws.isRunning = false
	ws.mutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws.runs.cancelAll()

	ws.connections.Range(func(conn, value interface{}) bool {
		if wsConn, ok := conn.(*websocket.Conn); ok {
			wsConn.Close()
		}
		return true
	})

	return ws.server.Shutdown(ctx)
}

// IsRunning returns true if the web server is running.
func (ws *WebServer) IsRunning() bool {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()
	return ws.isRunning
}

// GetPort returns the port the web server is bound to.
func (ws *WebServer) GetPort() int {
	return ws.port
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"port":   ws.port,
		"uptime": time.Since(ws.startTime).String(),
	})
}

func (ws *WebServer) countConnections() int {
	count := 0
	ws.connections.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

// CheckPortAvailable checks if a port is available to bind to.
func CheckPortAvailable(port int) bool {
	listener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

// FindAvailablePort finds an available port starting from a base port.
func FindAvailablePort(basePort int) int {
	port := basePort
	for port < basePort+100 {
		if CheckPortAvailable(port) {
			return port
		}
		port++
	}
	return basePort + 100
}
