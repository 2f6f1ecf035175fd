// internal/llm/ollama/ollama_test.go
package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/quantsafe/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_DefaultEndpoint(t *testing.T) {
	p, err := New("", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", p.endpoint)
	assert.Equal(t, "qwen2.5:32b", p.model)
}

func TestNew_CustomValues(t *testing.T) {
	p, err := New("http://custom:8080", "llama3", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://custom:8080", p.endpoint)
	assert.Equal(t, "llama3", p.model)
}

func TestChat_SchemaFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"{\"signal\":\"SELL\"}"},"done":true,"done_reason":"stop","prompt_eval_count":12,"eval_count":4}`))
	}))
	defer srv.Close()

	p, _ := New(srv.URL, "llama3", 0)
	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		SystemPrompt: "sys",
		Messages:     []llm.Message{{Role: "user", Content: "go"}},
		Schema:       &llm.Schema{Type: llm.TypeObject, Required: []string{"signal"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"signal":"SELL"}`, resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 12, resp.Usage.InputTokens)

	format := got["format"].(map[string]any)
	assert.Equal(t, "object", format["type"])
	assert.Equal(t, false, got["stream"])
	assert.Len(t, got["messages"], 2)
}

func TestChat_JSONMode(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"role":"assistant","content":"{}"},"done":true}`))
	}))
	defer srv.Close()

	p, _ := New(srv.URL, "llama3", 0)
	_, err := p.Chat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: "go"}},
		JSONMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "json", got["format"])
}

func TestChat_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, _ := New(srv.URL, "llama3", 0)
	_, err := p.Chat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: "go"}},
	})
	assert.Error(t, err)
}
