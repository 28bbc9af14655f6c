package clarifai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/ai/provider"
	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(config.ProviderConfig{
		Enabled: true,
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "food-item-recognition",
	})
}

func TestClient_SendAndParse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/models/food-item-recognition/outputs", r.URL.Path)
		assert.Equal(t, "Key test-key", r.Header.Get("Authorization"))

		var body outputsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Inputs, 1)
		assert.NotEmpty(t, body.Inputs[0].Data.Image.Base64)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": {"code": 10000, "description": "Ok"},
			"outputs": [{
				"data": {
					"concepts": [
						{"id": "1", "name": "tomato", "value": 0.93},
						{"id": "2", "name": "cucumber", "value": 0.71}
					],
					"regions": [{
						"region_info": {"bounding_box": {"top_row": 0.1, "left_col": 0.2, "bottom_row": 0.5, "right_col": 0.6}},
						"data": {"concepts": [{"id": "3", "name": "apple", "value": 0.8}]}
					}]
				}
			}]
		}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	assert.True(t, c.Configured())
	assert.Equal(t, "clarifai", c.Name())

	raw, err := c.Send(context.Background(), image.Upload{Data: []byte{1, 2, 3}, MIMEType: "image/jpeg"})
	require.NoError(t, err)

	parsed, err := c.Parse(raw)
	require.NoError(t, err)
	require.Len(t, parsed.Labels, 3)

	assert.Equal(t, "tomato", parsed.Labels[0].Name)
	assert.Equal(t, provider.FacetConcept, parsed.Labels[0].Facet)
	assert.InDelta(t, 0.93, parsed.Labels[0].Confidence, 1e-9)

	obj := parsed.Labels[2]
	assert.Equal(t, provider.FacetObject, obj.Facet)
	require.NotNil(t, obj.BoundingBox)
	assert.InDelta(t, 20.0, obj.BoundingBox.X, 1e-9)
	assert.InDelta(t, 10.0, obj.BoundingBox.Y, 1e-9)
	assert.InDelta(t, 40.0, obj.BoundingBox.Width, 1e-9)
	assert.InDelta(t, 40.0, obj.BoundingBox.Height, 1e-9)
}

func TestClient_SendNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":{"code":11102,"description":"Invalid API key"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Send(context.Background(), image.Upload{Data: []byte{1}})

	var statusErr *provider.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestClient_ParseProviderError(t *testing.T) {
	c := newTestClient("http://unused")

	_, err := c.Parse([]byte(`{"status":{"code":21200,"description":"Model does not exist"}}`))
	assert.Error(t, err)

	_, err = c.Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestClient_NotConfiguredWithoutKey(t *testing.T) {
	c := NewClient(config.ProviderConfig{Enabled: true, BaseURL: "http://unused"})
	assert.False(t, c.Configured())

	_, err := c.Send(context.Background(), image.Upload{Data: []byte{1}, MIMEType: "image/jpeg"})
	assert.ErrorIs(t, err, common.ErrProviderNotReady)
}
