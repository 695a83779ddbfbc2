package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/common"
	"github.com/ternarybob/causa/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based on
// configuration. Returns nil without error when the selected provider has no
// API key configured: callers degrade to the unavailable-OCR path and insight
// runs fail with a clear message instead of the service refusing to start.
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	switch cfg.LLM.Provider {
	case "claude":
		if cfg.Claude.APIKey == "" {
			logger.Warn().Msg("No Anthropic API key configured, LLM-backed features disabled")
			return nil, nil
		}
		return NewClaudeService(&cfg.Claude, cfg.LLM.RequestsPerMinute, logger)

	case "gemini":
		if cfg.Gemini.APIKey == "" {
			logger.Warn().Msg("No Google API key configured, LLM-backed features disabled")
			return nil, nil
		}
		return NewGeminiService(&cfg.Gemini, cfg.LLM.RequestsPerMinute, logger)

	default:
		return nil, fmt.Errorf("invalid LLM provider '%s': must be 'claude' or 'gemini'", cfg.LLM.Provider)
	}
}
