package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/ai/provider"
	"pantry-scanner/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(config.ProviderConfig{
		Enabled:   true,
		APIKey:    "or-key",
		BaseURL:   url,
		Model:     "qwen/qwen2.5-vl-72b-instruct:free",
		MaxTokens: 512,
	})
}

func TestClient_SendBuildsVisionRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen/qwen2.5-vl-72b-instruct:free", req.Model)
		require.Len(t, req.Messages, 1)
		require.Len(t, req.Messages[0].Content, 2)
		assert.Equal(t, "image_url", req.Messages[0].Content[1].Type)
		assert.True(t, strings.HasPrefix(req.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"gen-1","choices":[{"message":{"content":"` +
			"```json\\n{\\\"description\\\":\\\"kitchen table\\\",\\\"products\\\":[{\\\"name\\\":\\\"apple\\\",\\\"confidence\\\":0.8,\\\"quantity\\\":3,\\\"unit\\\":\\\"pcs\\\"}]}\\n```" +
			`"}}],"usage":{"total_tokens":120}}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	raw, err := c.Send(context.Background(), image.Upload{Data: []byte{1, 2}, MIMEType: "image/png"})
	require.NoError(t, err)

	parsed, err := c.Parse(raw)
	require.NoError(t, err)
	require.Len(t, parsed.Labels, 1)
	assert.Equal(t, "apple", parsed.Labels[0].Name)
	assert.Equal(t, provider.FacetObject, parsed.Labels[0].Facet)
	require.NotNil(t, parsed.Labels[0].Attributes)
	assert.Equal(t, 3.0, parsed.Labels[0].Attributes.Quantity)
	assert.Equal(t, "kitchen table", parsed.Description)
}

func TestClient_ParseFailures(t *testing.T) {
	c := newTestClient("http://unused")

	tests := []struct {
		name string
		body string
	}{
		{name: "api error", body: `{"error":{"message":"rate limited","code":429}}`},
		{name: "no choices", body: `{"choices":[]}`},
		{name: "empty content", body: `{"choices":[{"message":{"content":"  "}}]}`},
		{name: "non json content", body: `{"choices":[{"message":{"content":"I cannot see any food"}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestSanitizeResponse(t *testing.T) {
	body := `{"error":"bad image data:image/jpeg;base64,AAAABBBBCCCC=="}`
	assert.Equal(t, `{"error":"bad image [IMAGE_DATA_REMOVED]"}`, sanitizeResponse(body))
}
