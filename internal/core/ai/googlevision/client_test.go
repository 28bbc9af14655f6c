package googlevision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/ai/provider"
	"pantry-scanner/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const annotateBody = `{
  "responses": [{
    "localizedObjectAnnotations": [{
      "name": "Banana",
      "score": 0.88,
      "boundingPoly": {"normalizedVertices": [
        {"x": 0.1, "y": 0.2}, {"x": 0.5, "y": 0.2}, {"x": 0.5, "y": 0.7}, {"x": 0.1, "y": 0.7}
      ]}
    }],
    "labelAnnotations": [
      {"description": "Food", "score": 0.97},
      {"description": "Banana", "score": 0.91}
    ],
    "webDetection": {
      "webEntities": [{"description": "Cavendish banana", "score": 1.4}, {"description": "", "score": 0.3}],
      "bestGuessLabels": [{"label": "bananas on table"}]
    },
    "textAnnotations": [
      {"description": "МОЛОКО 3.2%\n"},
      {"description": "МОЛОКО"}
    ]
  }]
}`

func newTestClient(url string) *Client {
	return NewClient(config.ProviderConfig{Enabled: true, APIKey: "gv-key", BaseURL: url})
}

func TestClient_SendAndParseMergesFacets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images:annotate", r.URL.Path)
		assert.Equal(t, "gv-key", r.URL.Query().Get("key"))
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(annotateBody))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	raw, err := c.Send(context.Background(), image.Upload{Data: []byte{0xff, 0xd8}, MIMEType: "image/jpeg"})
	require.NoError(t, err)

	parsed, err := c.Parse(raw)
	require.NoError(t, err)

	facets := map[provider.Facet]int{}
	for _, l := range parsed.Labels {
		facets[l.Facet]++
	}
	assert.Equal(t, 1, facets[provider.FacetObject])
	assert.Equal(t, 2, facets[provider.FacetLabel])
	assert.Equal(t, 1, facets[provider.FacetWeb])
	assert.Equal(t, 1, facets[provider.FacetText])
	assert.Equal(t, "bananas on table", parsed.Description)

	obj := parsed.Labels[0]
	require.NotNil(t, obj.BoundingBox)
	assert.InDelta(t, 10.0, obj.BoundingBox.X, 1e-9)
	assert.InDelta(t, 20.0, obj.BoundingBox.Y, 1e-9)
	assert.InDelta(t, 40.0, obj.BoundingBox.Width, 1e-9)
	assert.InDelta(t, 50.0, obj.BoundingBox.Height, 1e-9)

	for _, l := range parsed.Labels {
		if l.Facet == provider.FacetWeb {
			assert.LessOrEqual(t, l.Confidence, 1.0)
		}
		if l.Facet == provider.FacetText {
			assert.Equal(t, "МОЛОКО", l.Name)
		}
	}
}

func TestClient_ParseErrors(t *testing.T) {
	c := newTestClient("http://unused")

	tests := []struct {
		name string
		body string
	}{
		{name: "top level error", body: `{"error":{"code":403,"message":"API key not valid"}}`},
		{name: "per image error", body: `{"responses":[{"error":{"code":3,"message":"Bad image data"}}]}`},
		{name: "no responses", body: `{"responses":[]}`},
		{name: "malformed", body: `{"responses":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Parse([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestClient_SendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Send(context.Background(), image.Upload{Data: []byte{1}})
	var statusErr *provider.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}
