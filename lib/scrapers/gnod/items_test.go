package gnod

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/clessn/scrapessn/lib/closeness"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *goquery.Document {
	contents, err := os.ReadFile("testdata/the_beatles.html")
	require.Nil(t, err)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(contents))
	require.Nil(t, err)
	return doc
}

func docFromString(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.Nil(t, err)
	return doc
}

func TestExtractItems(t *testing.T) {
	doc := loadFixture(t)

	items, err := ExtractItems(context.Background(), doc, "the+beatles")
	require.Nil(t, err)

	want := []closeness.Item{
		{Id: "the_beatles", Name: "The Beatles", SourceRef: "the+beatles", Position: 0},
		{Id: "the_kinks", Name: "The Kinks", SourceRef: "the+kinks", Position: 1},
		{Id: "simon_garfunkel", Name: "Simon & Garfunkel", SourceRef: "simon+%26+garfunkel", Position: 2},
	}
	diff := cmp.Diff(want, items)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractItemsNoAnchors(t *testing.T) {
	doc := docFromString(t, `<html><body><p>This page is down for maintenance.</p></body></html>`)

	_, err := ExtractItems(context.Background(), doc, "the+beatles")
	require.True(t, errors.Is(err, ErrStructuralMismatch), "got: %v", err)
}

func TestExtractItemsIdCollision(t *testing.T) {
	doc := docFromString(t, `<html><body>
<a class="S" href="?">Queen</a>
<a class="S" href="the+beatles">The Beatles</a>
<a class="S" href="the_beatles">The Beatles (again)</a>
</body></html>`)

	_, err := ExtractItems(context.Background(), doc, "queen")
	require.True(t, errors.Is(err, ErrParse), "got: %v", err)
}

func TestExtractItemsSubjectOverride(t *testing.T) {
	// the subject anchor's own href just reloads the page, the ref the
	// caller navigated with is the truth
	doc := docFromString(t, `<html><body>
<a class="S" href="?">Simon &amp; Garfunkel</a>
<a class="S" href="bob+dylan">Bob Dylan</a>
</body></html>`)

	items, err := ExtractItems(context.Background(), doc, "simon+%26+garfunkel")
	require.Nil(t, err)
	require.Equal(t, "simon_garfunkel", items[0].Id)
	require.Equal(t, "simon+%26+garfunkel", items[0].SourceRef)
}
