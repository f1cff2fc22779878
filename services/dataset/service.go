// Package dataset owns the merged closeness dataset: every page
// scrape lands here, newest first loses. It also answers the read
// queries the cli and the http api expose.
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clessn/scrapessn/lib/closeness"
	"github.com/clessn/scrapessn/lib/slug"
	"github.com/clessn/scrapessn/lib/textutil"
	"github.com/clessn/scrapessn/services/dataset/db"

	"github.com/antzucaro/matchr"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/dataset")

type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

// BeginRun opens a new scrape run for provenance and returns its id.
// origin says where the run's data comes from, a site base url or a
// file path for imports.
func (s Service) BeginRun(ctx context.Context, origin string) (string, error) {
	ctx, span := tracer.Start(ctx, "BeginRun")
	defer span.End()

	id, err := random.String(16)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	err = s.qry.CreateScrapeRun(ctx, db.CreateScrapeRunParams{
		ID:        id,
		BaseUrl:   origin,
		StartedAt: time.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.String("run_id", id))
	return id, nil
}

func (s Service) FinishRun(ctx context.Context, runId string, subjects, failures int) error {
	ctx, span := tracer.Start(ctx, "FinishRun")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runId))

	err := s.qry.FinishScrapeRun(ctx, db.FinishScrapeRunParams{
		FinishedAt: time.Now().Unix(),
		Subjects:   int64(subjects),
		Failures:   int64(failures),
		ID:         runId,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

type RecordResult struct {
	// edges actually inserted
	NewEdges int64
	// edges whose pair was already stored and therefore kept its
	// earlier score
	Ignored int64
}

// RecordTable merges one extracted table into the dataset inside a
// single transaction. Both items and edges are insert-or-ignore: the
// first recorded value for a key is the one that stays, reruns and
// overlapping pages never overwrite history. items may be nil for
// sources that only carry pairs, like csv imports.
func (s Service) RecordTable(ctx context.Context, runId string, items []closeness.Item, table closeness.Table) (RecordResult, error) {
	ctx, span := tracer.Start(ctx, "RecordTable")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runId),
		attribute.Int("edges", table.Len()),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RecordResult{}, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	for _, item := range items {
		err := txqry.CreateItem(ctx, db.CreateItemParams{
			ID:         item.Id,
			Name:       item.Name,
			SourceRef:  item.SourceRef,
			FirstRunID: runId,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return RecordResult{}, err
		}
	}

	var added int64
	for _, e := range table.Edges() {
		score := sql.NullFloat64{}
		if e.Closeness.Known {
			score = sql.NullFloat64{Float64: e.Closeness.Value, Valid: true}
		}
		n, err := txqry.CreateEdge(ctx, db.CreateEdgeParams{
			ItemA:     e.ItemA,
			ItemB:     e.ItemB,
			Closeness: score,
			RunID:     runId,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return RecordResult{}, err
		}
		added += n
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RecordResult{}, err
	}

	result := RecordResult{
		NewEdges: added,
		Ignored:  int64(table.Len()) - added,
	}
	span.SetAttributes(attribute.Int64("new_edges", result.NewEdges))
	return result, nil
}

// Table loads the entire stored dataset back into memory, mainly for
// exports. Edge order is (item_a, item_b) ascending, so exports are
// reproducible.
func (s Service) Table(ctx context.Context) (closeness.Table, error) {
	ctx, span := tracer.Start(ctx, "Table")
	defer span.End()

	rows, err := s.qry.ListEdges(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return closeness.Table{}, err
	}

	edges := make([]closeness.Edge, len(rows))
	for i, r := range rows {
		score := closeness.Score{}
		if r.Closeness.Valid {
			score = closeness.Known(r.Closeness.Float64)
		}
		edges[i] = closeness.Edge{
			ItemA:     r.ItemA,
			ItemB:     r.ItemB,
			Closeness: score,
		}
	}
	return closeness.FromEdges(edges), nil
}

type RelatedItem struct {
	Id        string
	Name      string
	Closeness closeness.Score
}

// Related lists everything the dataset links to the given item,
// known scores first in descending order, unknown pairs at the end.
// The self pair is not included.
func (s Service) Related(ctx context.Context, itemId string) ([]RelatedItem, error) {
	ctx, span := tracer.Start(ctx, "Related")
	defer span.End()
	span.SetAttributes(attribute.String("item", itemId))

	rows, err := s.qry.GetEdgesFrom(ctx, itemId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]RelatedItem, len(rows))
	for i, r := range rows {
		score := closeness.Score{}
		if r.Closeness.Valid {
			score = closeness.Known(r.Closeness.Float64)
		}
		out[i] = RelatedItem{
			Id:        r.ItemB,
			Name:      r.Name.String,
			Closeness: score,
		}
	}
	return out, nil
}

type ItemInfo struct {
	Id        string
	Name      string
	SourceRef string
	// the run that first recorded the item
	FirstRun string
}

func (s Service) Items(ctx context.Context) ([]ItemInfo, error) {
	ctx, span := tracer.Start(ctx, "Items")
	defer span.End()

	rows, err := s.qry.ListItems(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]ItemInfo, len(rows))
	for i, r := range rows {
		out[i] = itemInfo(r)
	}
	return out, nil
}

func itemInfo(r db.Item) ItemInfo {
	return ItemInfo{
		Id:        r.ID,
		Name:      r.Name,
		SourceRef: r.SourceRef,
		FirstRun:  r.FirstRunID,
	}
}

// how confident a fuzzy match has to be before FindItem accepts it
const findItemThreshold = 0.85

// FindItem resolves free-form user input, "The Beatls" included, to a
// stored item. Exact id matches win, otherwise the best Jaro-Winkler
// score over names and ids decides.
func (s Service) FindItem(ctx context.Context, query string) (ItemInfo, error) {
	ctx, span := tracer.Start(ctx, "FindItem")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	id := slug.Normalize(query)
	exact, err := s.qry.GetItem(ctx, id)
	if err == nil {
		return itemInfo(exact), nil
	}
	if err != sql.ErrNoRows {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ItemInfo{}, err
	}

	items, err := s.qry.ListItems(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ItemInfo{}, err
	}

	needle := textutil.FoldName(query)
	best := ItemInfo{}
	bestScore := 0.0
	for _, item := range items {
		similarity := matchr.JaroWinkler(needle, textutil.FoldName(item.Name), false)
		if byId := matchr.JaroWinkler(id, item.ID, false); byId > similarity {
			similarity = byId
		}
		if similarity > bestScore {
			bestScore = similarity
			best = itemInfo(item)
		}
	}

	if bestScore < findItemThreshold {
		return ItemInfo{}, fmt.Errorf("no item matching %q", query)
	}
	span.SetAttributes(
		attribute.String("match", best.Id),
		attribute.Float64("similarity", bestScore),
	)
	return best, nil
}

type RunInfo struct {
	Id        string
	Origin    string
	StartedAt time.Time
	// zero when the run never finished
	FinishedAt time.Time
	Subjects   int64
	Failures   int64
}

func (s Service) Runs(ctx context.Context) ([]RunInfo, error) {
	ctx, span := tracer.Start(ctx, "Runs")
	defer span.End()

	rows, err := s.qry.ListScrapeRuns(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]RunInfo, len(rows))
	for i, r := range rows {
		info := RunInfo{
			Id:        r.ID,
			Origin:    r.BaseUrl,
			StartedAt: time.Unix(r.StartedAt, 0),
			Subjects:  r.Subjects,
			Failures:  r.Failures,
		}
		if r.FinishedAt.Valid {
			info.FinishedAt = time.Unix(r.FinishedAt.Int64, 0)
		}
		out[i] = info
	}
	return out, nil
}

type Stats struct {
	Items int64
	Edges int64
}

func (s Service) Stats(ctx context.Context) (Stats, error) {
	ctx, span := tracer.Start(ctx, "Stats")
	defer span.End()

	items, err := s.qry.CountItems(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Stats{}, err
	}
	edges, err := s.qry.CountEdges(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Stats{}, err
	}
	return Stats{Items: items, Edges: edges}, nil
}
