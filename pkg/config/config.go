package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Provider identifiers accepted in config and on the command line.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type Config struct {
	Provider        string  `json:"provider"`          // "openai" (any OpenAI-compatible endpoint) or "ollama"
	Model           string  `json:"model"`             // model used for candidate generation and reasoning
	SelectionModel  string  `json:"selection_model"`   // model used for documentation selection; defaults to Model
	BaseURL         string  `json:"base_url"`          // OpenAI-compatible chat completions endpoint
	OllamaServerURL string  `json:"ollama_server_url"` // local Ollama server
	Temperature     float64 `json:"temperature"`
	MaxTokens       int     `json:"max_tokens"`
	MaxIterations   int     `json:"max_iterations"`       // synthesis loop cap; the loop has no intrinsic convergence guarantee
	RequestTimeoutS int     `json:"request_timeout_secs"` // per-LLM-call timeout
	WebPort         int     `json:"web_port"`
	JsonLogs        bool    `json:"json_logs"`
}

func getHomeConfigPath() (string, string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	configDir := filepath.Join(home, ".querysynth")
	return configDir, filepath.Join(configDir, "config.json")
}

func getCurrentConfigPath() (string, string) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", ""
	}
	configDir := filepath.Join(cwd, ".querysynth")
	return configDir, filepath.Join(configDir, "config.json")
}

func (cfg *Config) setDefaultValues() {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.SelectionModel == "" {
		cfg.SelectionModel = cfg.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.OllamaServerURL == "" {
		cfg.OllamaServerURL = "http://localhost:11434"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1 // low temperature for consistency across iterations
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 10
	}
	if cfg.RequestTimeoutS == 0 {
		cfg.RequestTimeoutS = 120
	}
	if cfg.WebPort == 0 {
		cfg.WebPort = 8765
	}
}

// applyEnvOverrides lets deployment environments override file settings
// without editing config.json.
func (cfg *Config) applyEnvOverrides() {
	if v := os.Getenv("QUERYSYNTH_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("QUERYSYNTH_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("QUERYSYNTH_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.OllamaServerURL = v
	}
	if v := os.Getenv("QUERYSYNTH_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxIterations = n
		}
	}
	if os.Getenv("QUERYSYNTH_JSON_LOGS") == "1" {
		cfg.JsonLogs = true
	}
}

func loadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	// Ensure all fields have a value, especially new ones not in older configs.
	cfg.setDefaultValues()
	return &cfg, nil
}

func saveConfig(filePath string, cfg *Config) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// LoadOrInit loads the config from the working directory first, then the home
// directory, creating a default config in the home directory when neither
// exists. Environment overrides are applied last.
func LoadOrInit() (*Config, error) {
	_, currentConfigPath := getCurrentConfigPath()
	_, homeConfigPath := getHomeConfigPath()

	for _, path := range []string{currentConfigPath, homeConfigPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			cfg, lerr := loadConfig(path)
			if lerr != nil {
				return nil, fmt.Errorf("could not load config %s: %w", path, lerr)
			}
			cfg.applyEnvOverrides()
			return cfg, nil
		}
	}

	cfg := &Config{}
	cfg.setDefaultValues()
	if homeConfigPath != "" {
		if err := saveConfig(homeConfigPath, cfg); err != nil {
			return nil, fmt.Errorf("could not create initial config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save persists the config to the home config path.
func (cfg *Config) Save() error {
	_, homeConfigPath := getHomeConfigPath()
	if homeConfigPath == "" {
		return fmt.Errorf("could not resolve home config path")
	}
	return saveConfig(homeConfigPath, cfg)
}
