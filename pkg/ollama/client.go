// Package ollama queries a vision model served by Ollama.
package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultURL is the address of a local Ollama server
const DefaultURL = "http://localhost:11434"

// defaultTimeout applies when the caller's context has no deadline
const defaultTimeout = 2 * time.Minute

// Client sends single-image chat requests to Ollama
type Client struct {
	api *api.Client
}

// NewClient creates a client for ollamaURL. Any path, such as /api/chat, is
// dropped: the API client adds its own.
func NewClient(ollamaURL string) (*Client, error) {
	u, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: scheme and host required", ollamaURL)
	}

	base := &url.URL{Scheme: u.Scheme, Host: u.Host}
	return &Client{api: api.NewClient(base, http.DefaultClient)}, nil
}

// modelOptions keeps replies short; MiniCPM-V 4 also needs a larger context
// for image tokens
func modelOptions(model string) map[string]any {
	opts := map[string]any{
		"num_predict": 32,
		"temperature": 0.2,
	}
	m := strings.ToLower(model)
	if strings.Contains(m, "minicpm-v4") || strings.Contains(m, "minicpm-v-4") || strings.Contains(m, "minicpmv4") {
		opts["num_ctx"] = 4096
	}
	return opts
}

// Query sends the prompt with one base64 image and returns the reply text
func (c *Client) Query(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	img, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	stream := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{{
			Role:    "user",
			Content: prompt,
			Images:  []api.ImageData{img},
		}},
		Stream:  &stream,
		Options: modelOptions(model),
	}

	var reply strings.Builder
	err = c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	if reply.Len() == 0 {
		return "", fmt.Errorf("empty response from ollama")
	}
	return reply.String(), nil
}
