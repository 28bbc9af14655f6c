package provider

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "error", n: 10, want: "error"},
		{name: "ascii", in: "bad request body", n: 3, want: "bad..."},
		{name: "cyrillic mid rune", in: "Молоко", n: 5, want: "Мо..."},
		{name: "cyrillic on boundary", in: "Молоко", n: 4, want: "Мо..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}

	long := truncate(strings.Repeat("ошибка ", 100), 300)
	assert.True(t, utf8.ValidString(long))
	assert.LessOrEqual(t, len(long), 303)
}
