package handlers

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImageString(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	encoded := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name     string
		in       string
		wantMIME string
		wantErr  bool
	}{
		{name: "data uri", in: "data:image/png;base64," + encoded, wantMIME: "image/png"},
		{name: "plain base64", in: "  " + encoded + "\n"},
		{name: "url", in: "https://example.com/a.jpg", wantErr: true},
		{name: "data uri without base64", in: "data:image/png," + encoded, wantErr: true},
		{name: "garbage", in: "not base64!!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mime, err := DecodeImageString(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, raw, data)
			assert.Equal(t, tt.wantMIME, mime)
		})
	}
}
