package gnod

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/clessn/scrapessn/lib/closeness"
	"github.com/clessn/scrapessn/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// the matrix always sits in the third script block of a map page
const matrixScriptIndex = 2

// matches one `Aid[3]=new Array(100,61,-1)` style assignment, the
// variable name varies between the map sites
var arrayAssignRegex = regexp.MustCompile(`(?m)[A-Za-z_$][0-9A-Za-z_$]*\[(\d+)\]\s*=\s*new\s+Array\(([^)]*)\)`)

// a score of -1 means the site doesn't know the pair
const unknownSentinel = -1

// ExtractMatrix digs the closeness matrix out of the page's inline
// script. n is the item count of the page, every one of positions
// 0..n-1 must have an array of exactly n scores or the whole call
// fails with ErrParse. A page without the script block or without any
// array assignments inside it fails with ErrStructuralMismatch
// instead, since that means the page layout itself changed.
func ExtractMatrix(ctx context.Context, doc *goquery.Document, n int) ([][]closeness.Score, error) {
	ctx, span := tracer.Start(ctx, "ExtractMatrix")
	defer span.End()

	scripts := doc.Find("script").Nodes
	if len(scripts) <= matrixScriptIndex {
		err := fmt.Errorf(
			"%w: document has %d script blocks, the matrix lives in block %d",
			ErrStructuralMismatch, len(scripts), matrixScriptIndex+1,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "matrix script block missing")
		return nil, err
	}

	text := htmlutil.GetText(scripts[matrixScriptIndex])
	matches := arrayAssignRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		err := fmt.Errorf(
			"%w: no array assignments in the matrix script block",
			ErrStructuralMismatch,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no array assignments")
		return nil, err
	}

	rows := map[int]string{}
	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, ok := rows[idx]; !ok {
			rows[idx] = m[2]
		}
	}

	matrix := make([][]closeness.Score, n)
	for i := 0; i < n; i++ {
		raw, ok := rows[i]
		if !ok {
			err := fmt.Errorf("%w: no score array for position %d", ErrParse, i)
			span.RecordError(err)
			span.SetStatus(codes.Error, "missing score array")
			return nil, err
		}

		values := strings.Split(raw, ",")
		if len(values) != n {
			err := fmt.Errorf(
				"%w: position %d has %d scores, want %d",
				ErrParse, i, len(values), n,
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "wrong score count")
			return nil, err
		}

		row := make([]closeness.Score, n)
		for j, v := range values {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				err = fmt.Errorf(
					"%w: position %d, score %d: %q is not a number",
					ErrParse, i, j, strings.TrimSpace(v),
				)
				span.RecordError(err)
				span.SetStatus(codes.Error, "bad score value")
				return nil, err
			}
			if parsed == unknownSentinel {
				continue
			}
			row[j] = closeness.Known(parsed)
		}
		matrix[i] = row
	}

	span.SetAttributes(attribute.KeyValue{
		Key:   "size",
		Value: attribute.IntValue(n),
	})
	return matrix, nil
}
