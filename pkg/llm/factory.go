package llm

import (
	"fmt"
	"time"

	"github.com/alantheprice/querysynth/pkg/config"
	"github.com/alantheprice/querysynth/pkg/utils"
)

// NewClient builds the provider named in the config.
func NewClient(cfg *config.Config, interactive bool) (Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		apiKey, err := GetAPIKey(interactive)
		if err != nil {
			return nil, fmt.Errorf("could not resolve API key for %s: %w", utils.CapitalizeWords(cfg.Provider), err)
		}
		return NewOpenAIProvider(cfg.BaseURL, cfg.Model, apiKey,
			WithTemperature(cfg.Temperature),
			WithMaxTokens(cfg.MaxTokens),
			WithTimeout(time.Duration(cfg.RequestTimeoutS)*time.Second),
		)
	case config.ProviderOllama:
		return NewOllamaProvider(cfg.OllamaServerURL, cfg.Model, cfg.Temperature, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// NewSelectionClient builds the client used for documentation selection,
// which may run a cheaper model than candidate generation. Falls back to the
// primary client configuration when no separate model is set.
func NewSelectionClient(cfg *config.Config, interactive bool) (Client, error) {
	if cfg.SelectionModel == "" || cfg.SelectionModel == cfg.Model {
		return NewClient(cfg, interactive)
	}
	clone := *cfg
	clone.Model = cfg.SelectionModel
	return NewClient(&clone, interactive)
}
