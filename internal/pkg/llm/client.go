// Package llm wraps the OpenAI chat completions API for structured JSON output.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/upsurge/campaign-lab/internal/pkg/logger"
)

var (
	ErrNoChoices     = errors.New("llm returned no choices")
	ErrEmptyResponse = errors.New("llm returned empty content")
	ErrNotConfigured = errors.New("llm api key not configured")
)

// Config holds OpenAI client settings
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Request is a single structured completion
type Request struct {
	System      string
	User        string
	SchemaName  string
	Schema      jsonschema.Definition
	Temperature float32
}

// Client performs JSON-schema constrained completions
type Client struct {
	client *openai.Client
	model  string
	apiKey string
}

// NewClient creates an OpenAI-backed client
func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{
		client: openai.NewClientWithConfig(oc),
		model:  model,
		apiKey: cfg.APIKey,
	}
}

// Complete sends the request and returns the raw JSON content of the first choice
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	log := logger.FromContext(ctx)
	log.Debug().Str("model", c.model).Str("schema", req.SchemaName).Msg("Requesting structured completion")

	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}

	log.Debug().
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("Structured completion received")
	return content, nil
}

func (c *Client) buildRequest(req Request) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	schema := req.Schema
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: &schema,
				Strict: true,
			},
		},
	}
}
