package gnod

import (
	"context"
	"fmt"
	"strings"

	"github.com/clessn/scrapessn/lib/closeness"
	"github.com/clessn/scrapessn/lib/htmlutil"
	"github.com/clessn/scrapessn/lib/slug"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// map pages mark every suggestion with this anchor class
const suggestionSelector = "a.S"

// ExtractItems reads the suggestion cloud off a map page in document
// order. The first anchor is always the subject itself and its href is
// garbage (it just reloads the page), so its ref is taken from the
// caller instead. A page with no suggestion anchors at all was
// redesigned or is an error page, which is an ErrStructuralMismatch.
func ExtractItems(ctx context.Context, doc *goquery.Document, subjectRef string) ([]closeness.Item, error) {
	ctx, span := tracer.Start(ctx, "ExtractItems")
	defer span.End()

	anchors := htmlutil.GetAnchors(ctx, doc.Find(suggestionSelector))
	if len(anchors) == 0 {
		err := fmt.Errorf("%w: no %q anchors", ErrStructuralMismatch, suggestionSelector)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no suggestion anchors")
		return nil, err
	}

	items := make([]closeness.Item, 0, len(anchors))
	seen := map[string]string{}
	for i, a := range anchors {
		ref := strings.TrimPrefix(strings.TrimPrefix(a.Href, "/"), "?")
		if i == 0 {
			ref = subjectRef
		}

		id := slug.Normalize(ref)
		if other, ok := seen[id]; ok {
			err := fmt.Errorf(
				"%w: refs %q and %q both normalize to %q",
				ErrParse, other, ref, id,
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "id collision")
			return nil, err
		}
		seen[id] = ref

		items = append(items, closeness.Item{
			Id:        id,
			Name:      a.Name,
			SourceRef: ref,
			Position:  i,
		})
	}

	span.SetAttributes(attribute.KeyValue{
		Key:   "count",
		Value: attribute.IntValue(len(items)),
	})
	return items, nil
}
