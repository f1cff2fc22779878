package gnod

import (
	"context"

	"github.com/clessn/scrapessn/lib/closeness"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Page is everything one subject page yields.
type Page struct {
	// normalized id of the page's subject
	Subject string
	Items   []closeness.Item
	Table   closeness.Table
}

// ExtractCloseness runs the full extraction over an already fetched
// document: the item list, then the matrix sized to it, then the
// n*n edge table crossing the two.
func ExtractCloseness(ctx context.Context, doc *goquery.Document, subjectRef string) (Page, error) {
	ctx, span := tracer.Start(ctx, "ExtractCloseness")
	defer span.End()

	items, err := ExtractItems(ctx, doc, subjectRef)
	if err != nil {
		span.SetStatus(codes.Error, "failed to extract items")
		return Page{}, err
	}

	matrix, err := ExtractMatrix(ctx, doc, len(items))
	if err != nil {
		span.SetStatus(codes.Error, "failed to extract matrix")
		return Page{}, err
	}

	table, err := closeness.BuildTable(items, matrix)
	if err != nil {
		// the extractors above already validated everything BuildTable
		// checks, so this only fires on a bug in this package
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build table")
		return Page{}, err
	}

	span.SetAttributes(
		attribute.KeyValue{
			Key:   "items",
			Value: attribute.IntValue(len(items)),
		},
		attribute.KeyValue{
			Key:   "edges",
			Value: attribute.IntValue(table.Len()),
		},
	)
	return Page{
		Subject: items[0].Id,
		Items:   items,
		Table:   table,
	}, nil
}

// ScrapeSubject fetches and extracts a single subject page.
func (c *Client) ScrapeSubject(ctx context.Context, subjectRef string) (Page, error) {
	ctx, span := tracer.Start(ctx, "client:ScrapeSubject")
	defer span.End()
	span.SetAttributes(attribute.KeyValue{
		Key:   "subject_ref",
		Value: attribute.StringValue(subjectRef),
	})

	doc, err := c.FetchDocument(ctx, subjectRef)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch document")
		return Page{}, err
	}
	return ExtractCloseness(ctx, doc, subjectRef)
}
