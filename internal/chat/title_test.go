package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"short message kept whole", "Hello", "Hello"},
		{"exactly thirty", strings.Repeat("a", 30), strings.Repeat("a", 30)},
		{"thirty one is cut", strings.Repeat("b", 31), strings.Repeat("b", 30) + "..."},
		{"blank falls back", "   \n\t", DefaultTitle},
		{"line breaks flattened", "  what is\ngo?  ", "what is go?"},
		{"multibyte counted as runes", strings.Repeat("é", 35), strings.Repeat("é", 30) + "..."},
		{"no dangling space before ellipsis", "abcd abcd abcd abcd abcd abcd abcd", "abcd abcd abcd abcd abcd abcd..."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveTitle(tc.in))
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	got, ok := NormalizeTitle("  Trip plans ")
	assert.True(t, ok)
	assert.Equal(t, "Trip plans", got)

	_, ok = NormalizeTitle(" \t ")
	assert.False(t, ok)
}
