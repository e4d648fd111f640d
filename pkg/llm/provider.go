package llm

import (
	"bytes"
	"context"
)

// Roles accepted in Message.Role. Providers map RoleModel to their own
// assistant role where needed.
const (
	RoleUser   = "user"
	RoleModel  = "model"
	RoleSystem = "system"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "model"/"assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature       float64
	MaxTokens         int
	Model             string // Override default model
	SystemInstruction string
	JSONResponse      bool
	ResponseSchema    map[string]interface{} // JSON Schema, lowercase types
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithSystemInstruction(text string) Option {
	return func(o *Options) {
		o.SystemInstruction = text
	}
}

// WithJSONResponse asks the provider for a JSON document. schema may be nil.
func WithJSONResponse(schema map[string]interface{}) Option {
	return func(o *Options) {
		o.JSONResponse = true
		o.ResponseSchema = schema
	}
}

// Apply folds opts over defaults.
func Apply(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// Name identifies the backend, e.g. "gemini"
	Name() string
}

// StripCodeFence removes a surrounding ```json fence some models add even in JSON mode.
func StripCodeFence(text string) []byte {
	b := bytes.TrimSpace([]byte(text))
	b = bytes.TrimPrefix(b, []byte("```json"))
	b = bytes.TrimPrefix(b, []byte("```"))
	b = bytes.TrimSuffix(b, []byte("```"))
	return bytes.TrimSpace(b)
}
