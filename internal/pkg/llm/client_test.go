package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

func testSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"name": {Type: jsonschema.String},
		},
		Required:             []string{"name"},
		AdditionalProperties: false,
	}
}

func TestBuildRequestUsesStrictSchema(t *testing.T) {
	c := NewClient(Config{APIKey: "k"})
	req := c.buildRequest(Request{System: "sys", User: "hello", SchemaName: "thing", Schema: testSchema()})

	if req.Model != openai.GPT4oMini {
		t.Fatalf("expected default model, got %s", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONSchema {
		t.Fatalf("expected json_schema response format")
	}
	if !req.ResponseFormat.JSONSchema.Strict || req.ResponseFormat.JSONSchema.Name != "thing" {
		t.Fatalf("unexpected schema config: %+v", req.ResponseFormat.JSONSchema)
	}
}

func TestBuildRequestOmitsEmptySystem(t *testing.T) {
	c := NewClient(Config{APIKey: "k", Model: "gpt-4o"})
	req := c.buildRequest(Request{User: "hello", Schema: testSchema()})
	if len(req.Messages) != 1 || req.Messages[0].Role != openai.ChatMessageRoleUser {
		t.Fatalf("expected a single user message, got %+v", req.Messages)
	}
}

func TestCompleteAgainstFakeServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["response_format"]; !ok {
			t.Errorf("response_format missing from request")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"name\":\"ok\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	out, err := c.Complete(context.Background(), Request{User: "x", SchemaName: "thing", Schema: testSchema()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"name":"ok"}` {
		t.Fatalf("unexpected content %q", out)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), Request{User: "x", Schema: testSchema()})
	if !errors.Is(err, ErrNoChoices) {
		t.Fatalf("expected ErrNoChoices, got %v", err)
	}
}

func TestCompleteWithoutKey(t *testing.T) {
	c := NewClient(Config{})
	if _, err := c.Complete(context.Background(), Request{User: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
