package slug

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plus separators", "the+beatles", "the_beatles"},
		{"encoded ampersand", "simon+%26+garfunkel", "simon_garfunkel"},
		{"purely numeric", "12345", "i12345"},
		{"already normalized", "the_beatles", "the_beatles"},
		{"apostrophe", "guns+n'+roses", "guns_n_roses"},
		{"encoded slash", "ac%2Fdc", "acdc"},
		{"colon and question mark", "panic%21+at+the+disco%3F", "panic_at_the_disco"},
		{"non ascii stripped", "bj%C3%B6rk", "bjrk"},
		{"invalid percent escape", "100%", "i100"},
		{"mixed alphanumeric keeps prefixless", "24kgoldn", "24kgoldn"},
		{"numeric prefix is stable", "i12345", "i12345"},
		{"empty", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, Normalize(c.input))
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	inputs := []string{"the+beatles", "simon+%26+garfunkel", "12345", ""}
	for _, in := range inputs {
		first := Normalize(in)
		require.Equal(t, first, Normalize(in))
		require.Equal(t, first, Normalize(first))
	}
}
