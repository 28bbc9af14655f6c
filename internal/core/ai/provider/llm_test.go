package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductJSON(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantNames []string
		wantDesc  string
		wantErr   bool
	}{
		{
			name:      "object reply",
			content:   `{"description":"fridge shelf","products":[{"name":"milk","confidence":0.9},{"name":"cheese","confidence":0.7}]}`,
			wantNames: []string{"milk", "cheese"},
			wantDesc:  "fridge shelf",
		},
		{
			name:      "bare array inside fence",
			content:   "```json\n[{\"name\":\"banana\",\"confidence\":1.3}]\n```",
			wantNames: []string{"banana"},
		},
		{
			name:      "blank names dropped",
			content:   `{"products":[{"name":"  ","confidence":0.9},{"name":"egg","confidence":0.6}]}`,
			wantNames: []string{"egg"},
		},
		{
			name:      "unquoted keys",
			content:   `{products:[{name:"apple", confidence:0.8}]}`,
			wantNames: []string{"apple"},
		},
		{
			name:    "prose only",
			content: "no food here",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseProductJSON(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var names []string
			for _, l := range parsed.Labels {
				names = append(names, l.Name)
				assert.GreaterOrEqual(t, l.Confidence, 0.0)
				assert.LessOrEqual(t, l.Confidence, 1.0)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantDesc, parsed.Description)
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "empty", OutcomeEmpty.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}

func TestNewLimiterDisabledForZeroRate(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	l := NewLimiter(0.5)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())
}
