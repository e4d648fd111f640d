package factory

import (
	"fmt"
	"time"

	"plantguard-be/internal/config"
	"plantguard-be/pkg/llm"
	"plantguard-be/pkg/llm/gemini"
	"plantguard-be/pkg/llm/huggingface"
	"plantguard-be/pkg/llm/ollama"
)

const (
	DefaultGeminiModel      = "gemini-3-flash-preview"
	DefaultOllamaModel      = "llama3.1:8b"
	DefaultHuggingFaceModel = "meta-llama/Llama-3.1-8B-Instruct"
	DefaultOllamaBaseURL    = "http://localhost:11434"
)

type Params struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// DefaultModel returns the model used when none is configured, or "" for an
// unknown provider.
func DefaultModel(provider string) string {
	switch provider {
	case "gemini", "":
		return DefaultGeminiModel
	case "ollama":
		return DefaultOllamaModel
	case "huggingface":
		return DefaultHuggingFaceModel
	}
	return ""
}

// FromConfig picks the credentials and endpoint belonging to the configured
// provider.
func FromConfig(cfg *config.Config) Params {
	p := Params{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		Timeout:  cfg.Ai.Timeout,
	}
	switch cfg.Ai.LLMProvider {
	case "ollama":
		p.BaseURL = cfg.Ai.OllamaBaseURL
	case "huggingface":
		p.BaseURL = cfg.Ai.HuggingFaceURL
		p.APIKey = cfg.Keys.HuggingFace
	default:
		p.APIKey = cfg.Keys.GoogleGemini
	}
	if p.Model == "" {
		p.Model = DefaultModel(p.Provider)
	}
	return p
}

func NewLLMProvider(p Params) (llm.LLMProvider, error) {
	if p.Model == "" {
		p.Model = DefaultModel(p.Provider)
	}
	switch p.Provider {
	case "gemini", "":
		if p.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		prov := gemini.NewGeminiProvider(p.APIKey, p.Model, p.Timeout)
		if p.BaseURL != "" {
			prov.BaseURL = p.BaseURL
		}
		return prov, nil
	case "ollama":
		baseURL := p.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaBaseURL
		}
		return ollama.NewOllamaProvider(baseURL, p.Model, p.Timeout), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(p.APIKey, p.BaseURL, p.Model, p.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", p.Provider)
	}
}
