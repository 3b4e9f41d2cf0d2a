package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"prose around braces", "はい。{\"a\":{\"b\":2}} 以上です。", `{"a":{"b":2}}`},
		{"fenced", "説明\n```json\n{\"a\":1}\n```\n後書き {x}", `{"a":1}`},
		{"empty fence falls back to braces", "```json\n```\n{\"a\":3}", `{"a":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONMissing(t *testing.T) {
	for _, in := range []string{"", "no json here", "} backwards {"} {
		_, err := ExtractJSON(in)
		assert.ErrorIs(t, err, ErrNoJSON, in)
	}
}
