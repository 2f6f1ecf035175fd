// Package gemini implements the LLM interface for Google Gemini over the
// generateContent REST endpoint.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/newthinker/quantsafe/internal/llm"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com"
	defaultModel    = "gemini-3-flash-preview"
)

// Provider implements the LLM interface for Gemini.
type Provider struct {
	client *resty.Client
	apiKey string
	model  string
}

// New creates a new Gemini provider. The API key is not checked here; a
// missing or wrong key surfaces as an authentication error from the API.
func New(endpoint, apiKey, model string, timeout time.Duration) (*Provider, error) {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(endpoint, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")

	return &Provider{client: client, apiKey: apiKey, model: model}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gemini"
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type schema struct {
	Type             string             `json:"type"`
	Description      string             `json:"description,omitempty"`
	Enum             []string           `json:"enum,omitempty"`
	Properties       map[string]*schema `json:"properties,omitempty"`
	Items            *schema            `json:"items,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
}

type generationConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type generateResponse struct {
	Candidates    []candidate `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Chat sends a generateContent request to the Gemini API.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	contents := make([]content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	body := generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     req.Temperature,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}
	if req.JSONMode || req.Schema != nil {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}
	if req.Schema != nil {
		body.GenerationConfig.ResponseSchema = convertSchema(req.Schema)
	}

	var out generateResponse
	var apiErr apiError
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", p.apiKey).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1beta/models/" + p.model + ":generateContent")
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return nil, fmt.Errorf("gemini API returned status %d (%s): %s",
				resp.StatusCode(), apiErr.Error.Status, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("gemini API returned status %d", resp.StatusCode())
	}

	if len(out.Candidates) == 0 {
		if out.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("gemini blocked prompt: %s", out.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, pt := range out.Candidates[0].Content.Parts {
		sb.WriteString(pt.Text)
	}

	return &llm.ChatResponse{
		Content: sb.String(),
		Usage: llm.Usage{
			InputTokens:  out.UsageMetadata.PromptTokenCount,
			OutputTokens: out.UsageMetadata.CandidatesTokenCount,
		},
		FinishReason: out.Candidates[0].FinishReason,
	}, nil
}

// convertSchema maps the shared schema onto Gemini's OpenAPI dialect, which
// spells types in upper case.
func convertSchema(s *llm.Schema) *schema {
	if s == nil {
		return nil
	}
	out := &schema{
		Type:             strings.ToUpper(string(s.Type)),
		Description:      s.Description,
		Enum:             s.Enum,
		Items:            convertSchema(s.Items),
		Required:         s.Required,
		PropertyOrdering: s.Order,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = convertSchema(prop)
		}
	}
	return out
}
