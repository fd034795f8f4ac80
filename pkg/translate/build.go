package translate

import (
	"LifeLine/pkg/config"
	"LifeLine/pkg/llm"

	"github.com/sirupsen/logrus"
)

// BuildGate picks the backend named by cfg.Backend ("mymemory", "llm" or
// "none").
func BuildGate(cfg config.TranslateConfig, onFallback FallbackHook) *Gate {
	var backend Translator
	switch cfg.Backend {
	case "llm":
		if cfg.LLMApiKey != "" {
			lg := logrus.New()
			lg.SetFormatter(&logrus.JSONFormatter{})
			handler := llm.NewLLMHandler(cfg.LLMApiKey, cfg.LLMURL, SystemPrompt(), lg)
			backend = NewLLMTranslator(handler, cfg.LLMModel)
		}
	case "none", "off":
	default:
		backend = NewMyMemory(cfg.BaseURL, cfg.Email)
	}
	return NewGate(backend, cfg.Timeout, onFallback)
}
