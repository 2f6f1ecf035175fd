// internal/llm/ollama/ollama.go
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/newthinker/quantsafe/internal/llm"
)

// Provider implements the LLM interface for Ollama.
type Provider struct {
	endpoint string
	model    string
	client   *resty.Client
}

// New creates a new Ollama provider. timeout bounds a whole chat call;
// zero keeps the two minute default.
func New(endpoint, model string, timeout time.Duration) (*Provider, error) {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "qwen2.5:32b"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	client := resty.New()
	client.SetBaseURL(endpoint)
	client.SetTimeout(timeout)
	return &Provider{
		endpoint: endpoint,
		model:    model,
		client:   client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "ollama"
}

// ollamaRequest represents the request to Ollama API.
type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options,omitempty"`
	// Format is either the string "json" or a JSON schema object.
	Format json.RawMessage `json:"format,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// ollamaResponse represents the response from Ollama API.
type ollamaResponse struct {
	Model           string        `json:"model"`
	CreatedAt       string        `json:"created_at"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason,omitempty"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
	EvalCount       int           `json:"eval_count,omitempty"`
}

// Chat sends a chat request to the Ollama API.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	messages := make([]ollamaMessage, 0, len(req.Messages)+1)

	if req.SystemPrompt != "" {
		messages = append(messages, ollamaMessage{
			Role:    "system",
			Content: req.SystemPrompt,
		})
	}

	for _, m := range req.Messages {
		messages = append(messages, ollamaMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	ollamaReq := ollamaRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   false,
		Options: ollamaOptions{
			NumPredict:  maxTokens,
			Temperature: req.Temperature,
		},
	}

	switch {
	case req.Schema != nil:
		format, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("marshaling schema: %w", err)
		}
		ollamaReq.Format = format
	case req.JSONMode:
		ollamaReq.Format = json.RawMessage(`"json"`)
	}

	var ollamaResp ollamaResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(ollamaReq).
		SetResult(&ollamaResp).
		Post("/api/chat")
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("ollama API returned status %d", resp.StatusCode())
	}

	return &llm.ChatResponse{
		Content: ollamaResp.Message.Content,
		Usage: llm.Usage{
			InputTokens:  ollamaResp.PromptEvalCount,
			OutputTokens: ollamaResp.EvalCount,
		},
		FinishReason: ollamaResp.DoneReason,
	}, nil
}
