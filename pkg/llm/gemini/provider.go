package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"plantguard-be/pkg/llm"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiProvider struct {
	ApiKey    string
	BaseURL   string
	ModelName string
	Client    *http.Client
}

// Ensure GeminiProvider implements LLMProvider
var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(apiKey, modelName string, timeout time.Duration) *GeminiProvider {
	return &GeminiProvider{
		ApiKey:    apiKey,
		BaseURL:   DefaultBaseURL,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature      *float64               `json:"temperature,omitempty"`
	MaxOutputTokens  int                    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Apply(llm.Options{Model: p.ModelName, Temperature: -1}, opts...)

	req := generateRequest{Contents: make([]geminiContent, 0, len(history))}
	system := options.SystemInstruction
	for _, msg := range history {
		switch msg.Role {
		case llm.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		case "assistant", llm.RoleModel:
			req.Contents = append(req.Contents, geminiContent{Role: llm.RoleModel, Parts: []geminiPart{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: llm.RoleUser, Parts: []geminiPart{{Text: msg.Content}}})
		}
	}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	if options.Temperature >= 0 {
		t := options.Temperature
		req.GenerationConfig.Temperature = &t
	}
	req.GenerationConfig.MaxOutputTokens = options.MaxTokens
	if options.JSONResponse {
		req.GenerationConfig.ResponseMimeType = "application/json"
		if options.ResponseSchema != nil {
			req.GenerationConfig.ResponseSchema = ToGeminiSchema(options.ResponseSchema)
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(p.BaseURL, "/"), options.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", p.ApiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status error, got status %d. with response body %s", res.StatusCode, string(resBody))
	}

	var geminiRes generateResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if geminiRes.PromptFeedback != nil && geminiRes.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked prompt: %s", geminiRes.PromptFeedback.BlockReason)
	}
	if len(geminiRes.Candidates) == 0 || len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range geminiRes.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// ToGeminiSchema rewrites a JSON Schema into Gemini's OpenAPI subset, which
// spells types in upper case.
func ToGeminiSchema(schema map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(schema))
	for k, v := range schema {
		switch val := v.(type) {
		case string:
			if k == "type" {
				out[k] = strings.ToUpper(val)
			} else {
				out[k] = val
			}
		case map[string]interface{}:
			out[k] = ToGeminiSchema(val)
		default:
			out[k] = v
		}
	}
	return out
}
