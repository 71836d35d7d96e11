package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapitalizeWords(t *testing.T) {
	assert.Equal(t, "Openai Compatible", CapitalizeWords("openai compatible"))
	assert.Equal(t, "Ollama", CapitalizeWords("ollama"))
	assert.Equal(t, "", CapitalizeWords(""))
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exactly max", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"tiny max", "hello", 2, "he"},
		{"zero max", "hello", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateString(tt.input, tt.maxLen))
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", "   "))
}
