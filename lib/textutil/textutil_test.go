package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "The Beatles", "thebeatles"},
		{"inner whitespace run", "The \t Beatles", "thebeatles"},
		{"surrounding whitespace", "\n The Beatles \t", "thebeatles"},
		{"already folded", "thebeatles", "thebeatles"},
		{"punctuation survives", "Simon & Garfunkel", "simon&garfunkel"},
		{"empty", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, FoldName(c.input))
		})
	}
}
