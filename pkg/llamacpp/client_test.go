package llamacpp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryStringContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, completionsPath, r.URL.Path)

		var req completionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "vision", req.Model)
		assert.Equal(t, 8, req.MaxTokens)
		assert.False(t, req.Stream)

		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"red fox"}}]}`))
	}))
	defer server.Close()

	c, err := NewClient(server.URL+"/", WithMaxTokens(8))
	require.NoError(t, err)

	got, err := c.Query(context.Background(), "vision", "what is it?", "AAAA")
	require.NoError(t, err)
	assert.Equal(t, "red fox", got)
}

func TestQueryPartsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":[{"type":"text","text":""},{"type":"text","text":"owl"}]}}]}`))
	}))
	defer server.Close()

	c, err := NewClient(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	got, err := c.Query(context.Background(), "vision", "what is it?", "")
	require.NoError(t, err)
	assert.Equal(t, "owl", got)
}

func TestQueryStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, _ := NewClient(server.URL)
	_, err := c.Query(context.Background(), "vision", "p", "AAAA")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, "model loading", statusErr.Body)
}

func TestQueryBadResponses(t *testing.T) {
	tests := map[string]string{
		"no choices": `{"choices":[]}`,
		"bad json":   `{`,
		"no text":    `{"choices":[{"message":{"content":""}}]}`,
		"odd type":   `{"choices":[{"message":{"content":42}}]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			c, _ := NewClient(server.URL)
			_, err := c.Query(context.Background(), "vision", "p", "AAAA")
			assert.Error(t, err)
		})
	}
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.baseURL)

	_, err = NewClient("localhost:8080")
	assert.Error(t, err)
}
