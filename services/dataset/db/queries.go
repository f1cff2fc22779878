package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Item struct {
	ID         string
	Name       string
	SourceRef  string
	FirstRunID string
}

type ScrapeRun struct {
	ID         string
	BaseUrl    string
	StartedAt  int64
	FinishedAt sql.NullInt64
	Subjects   int64
	Failures   int64
}

const createScrapeRun = `
INSERT INTO scrape_run (id, base_url, started_at)
VALUES (?, ?, ?)
`

type CreateScrapeRunParams struct {
	ID        string
	BaseUrl   string
	StartedAt int64
}

func (q *Queries) CreateScrapeRun(ctx context.Context, arg CreateScrapeRunParams) error {
	_, err := q.db.ExecContext(ctx, createScrapeRun, arg.ID, arg.BaseUrl, arg.StartedAt)
	return err
}

const finishScrapeRun = `
UPDATE scrape_run
SET finished_at = ?, subjects = ?, failures = ?
WHERE id = ?
`

type FinishScrapeRunParams struct {
	FinishedAt int64
	Subjects   int64
	Failures   int64
	ID         string
}

func (q *Queries) FinishScrapeRun(ctx context.Context, arg FinishScrapeRunParams) error {
	_, err := q.db.ExecContext(ctx, finishScrapeRun, arg.FinishedAt, arg.Subjects, arg.Failures, arg.ID)
	return err
}

const listScrapeRuns = `
SELECT id, base_url, started_at, finished_at, subjects, failures
FROM scrape_run
ORDER BY started_at DESC
`

func (q *Queries) ListScrapeRuns(ctx context.Context) ([]ScrapeRun, error) {
	rows, err := q.db.QueryContext(ctx, listScrapeRuns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScrapeRun
	for rows.Next() {
		var r ScrapeRun
		err := rows.Scan(&r.ID, &r.BaseUrl, &r.StartedAt, &r.FinishedAt, &r.Subjects, &r.Failures)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const createItem = `
INSERT OR IGNORE INTO item (id, name, source_ref, first_run_id)
VALUES (?, ?, ?, ?)
`

type CreateItemParams struct {
	ID         string
	Name       string
	SourceRef  string
	FirstRunID string
}

func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) error {
	_, err := q.db.ExecContext(ctx, createItem, arg.ID, arg.Name, arg.SourceRef, arg.FirstRunID)
	return err
}

const getItem = `
SELECT id, name, source_ref, first_run_id FROM item WHERE id = ?
`

func (q *Queries) GetItem(ctx context.Context, id string) (Item, error) {
	var i Item
	err := q.db.QueryRowContext(ctx, getItem, id).Scan(&i.ID, &i.Name, &i.SourceRef, &i.FirstRunID)
	return i, err
}

const listItems = `
SELECT id, name, source_ref, first_run_id FROM item ORDER BY id
`

func (q *Queries) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := q.db.QueryContext(ctx, listItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var i Item
		err := rows.Scan(&i.ID, &i.Name, &i.SourceRef, &i.FirstRunID)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

const createEdge = `
INSERT OR IGNORE INTO closeness_edge (item_a, item_b, closeness, run_id)
VALUES (?, ?, ?, ?)
`

type CreateEdgeParams struct {
	ItemA     string
	ItemB     string
	Closeness sql.NullFloat64
	RunID     string
}

// returns the number of rows actually inserted, 0 when the pair
// already existed
func (q *Queries) CreateEdge(ctx context.Context, arg CreateEdgeParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createEdge, arg.ItemA, arg.ItemB, arg.Closeness, arg.RunID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getEdgesFrom = `
SELECT e.item_b, i.name, e.closeness
FROM closeness_edge e
LEFT JOIN item i ON i.id = e.item_b
WHERE e.item_a = ? AND e.item_b != e.item_a
ORDER BY e.closeness DESC
`

type GetEdgesFromRow struct {
	ItemB     string
	Name      sql.NullString
	Closeness sql.NullFloat64
}

func (q *Queries) GetEdgesFrom(ctx context.Context, itemA string) ([]GetEdgesFromRow, error) {
	rows, err := q.db.QueryContext(ctx, getEdgesFrom, itemA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GetEdgesFromRow
	for rows.Next() {
		var r GetEdgesFromRow
		err := rows.Scan(&r.ItemB, &r.Name, &r.Closeness)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const listEdges = `
SELECT item_a, item_b, closeness
FROM closeness_edge
ORDER BY item_a, item_b
`

type ListEdgesRow struct {
	ItemA     string
	ItemB     string
	Closeness sql.NullFloat64
}

func (q *Queries) ListEdges(ctx context.Context) ([]ListEdgesRow, error) {
	rows, err := q.db.QueryContext(ctx, listEdges)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListEdgesRow
	for rows.Next() {
		var r ListEdgesRow
		err := rows.Scan(&r.ItemA, &r.ItemB, &r.Closeness)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const countEdges = `
SELECT COUNT(*) FROM closeness_edge
`

func (q *Queries) CountEdges(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countEdges).Scan(&n)
	return n, err
}

const countItems = `
SELECT COUNT(*) FROM item
`

func (q *Queries) CountItems(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countItems).Scan(&n)
	return n, err
}
