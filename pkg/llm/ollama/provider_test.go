package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"plantguard-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"{\"english\":\"a\",\"hindi\":\"b\"}"},"done":true}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3", time.Second)
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "seed"},
		{Role: llm.RoleModel, Content: "advice"},
	}, llm.WithSystemInstruction("sys"), llm.WithJSONResponse(nil))
	require.NoError(t, err)
	assert.Equal(t, `{"english":"a","hindi":"b"}`, out)

	assert.Equal(t, "json", got["format"])
	assert.Equal(t, false, got["stream"])
	msgs := got["messages"].([]interface{})
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "assistant", msgs[2].(map[string]interface{})["role"])
}

func TestChat_SchemaFormat(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{}"}}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3", 0)
	_, err := p.Generate(context.Background(), "q", llm.WithJSONResponse(map[string]interface{}{"type": "object"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"type": "object"}, got["format"])
	assert.Equal(t, 120*time.Second, p.Client.Timeout)
}

func TestChat_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing", time.Second).Generate(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
