package htmlutil

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("scrapessn.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText strips non-printable runes and squashes the whitespace
// html tends to sprinkle into inline text. Tabs and newlines count as
// whitespace, not garbage, so "The\nBeatles" stays two words.
func CleanText(s string) string {
	var printable strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) {
			printable.WriteRune(c)
		} else if unicode.IsSpace(c) {
			printable.WriteRune(' ')
		}
	}
	out := strings.Trim(printable.String(), " ")
	return innerWhitespace.ReplaceAllString(out, " ")
}

type Anchor struct {
	Name string
	Href string
}

// GetAnchors collects the cleaned display text and href of every node
// in the selection. Hrefs are returned exactly as they appear in the
// document, since callers usually want the raw query fragment rather
// than a reparsed url. Anchors without an href are skipped.
func GetAnchors(ctx context.Context, sel *goquery.Selection) []Anchor {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}
		if href == "" {
			continue
		}

		name := CleanText(GetText(n))
		anchors = append(anchors, Anchor{
			Name: name,
			Href: href,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("href", href),
		))
	}

	return anchors
}
