package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const anchorDoc = `
<html><body>
<a class="S" href="?the+beatles">The   Beatles</a>
<a class="S" href="?simon+%26+garfunkel"> Simon &amp; Garfunkel
</a>
<a class="S">no href here</a>
<a class="other" href="?ignored">Ignored</a>
</body></html>`

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(anchorDoc))
	require.Nil(t, err)

	anchors := GetAnchors(context.Background(), doc.Find("a.S"))
	require.Equal(t, []Anchor{
		{Name: "The Beatles", Href: "?the+beatles"},
		{Name: "Simon & Garfunkel", Href: "?simon+%26+garfunkel"},
	}, anchors)
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"  The   Beatles \n", "The Beatles"},
		{"plain", "plain"},
		{"tabs\t\tinside", "tabs inside"},
		{"The\nBeatles", "The Beatles"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, CleanText(c.input))
	}
}

func TestGetText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div>outer <b>bold <i>nested</i></b> tail</div>`,
	))
	require.Nil(t, err)

	sel := doc.Find("div")
	require.Equal(t, 1, len(sel.Nodes))
	require.Equal(t, "outer bold nested tail", GetText(sel.Nodes[0]))
}
