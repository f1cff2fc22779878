// Package closeness holds the in-memory representation of a closeness
// table: the full set of directed (item, item) -> score edges scraped
// from a single map page, plus the operations to build, merge and
// serialize such tables.
package closeness

import (
	"fmt"
)

// Score is the closeness of an ordered item pair. The zero value means
// "unknown": the page carried a -1 placeholder for the pair. Unknown
// scores are kept as edges so a merge can't resurrect them later with
// a made-up number.
type Score struct {
	Value float64
	Known bool
}

func Known(value float64) Score {
	return Score{Value: value, Known: true}
}

// Item is a single entry scraped from a map page, already normalized.
type Item struct {
	// normalized id, see lib/slug
	Id   string
	Name string
	// raw href query fragment the item was discovered under
	SourceRef string
	// 0-based position on the page, which is also the row index of the
	// item in the embedded matrix
	Position int
}

// Edge is one directed pair. A page about item X yields an edge for
// every ordered combination of the items it lists, including (X, X).
type Edge struct {
	ItemA     string
	ItemB     string
	Closeness Score
}

type pairKey struct {
	a string
	b string
}

// Table is an ordered, duplicate-free collection of edges. Order is
// retained so serializing a table is stable across runs.
type Table struct {
	edges []Edge
	index map[pairKey]int
}

func (t Table) Len() int {
	return len(t.edges)
}

// Edges returns the backing edge slice in insertion order.
func (t Table) Edges() []Edge {
	return t.edges
}

// Lookup returns the score stored for the ordered pair (a, b).
func (t Table) Lookup(a, b string) (Score, bool) {
	i, ok := t.index[pairKey{a: a, b: b}]
	if !ok {
		return Score{}, false
	}
	return t.edges[i].Closeness, true
}

// reports whether the edge was actually added. an edge for an already
// known pair is left alone, whatever its score says.
func (t *Table) insert(e Edge) bool {
	key := pairKey{a: e.ItemA, b: e.ItemB}
	_, exists := t.index[key]
	if exists {
		return false
	}
	t.index[key] = len(t.edges)
	t.edges = append(t.edges, e)
	return true
}

func newTable(capacity int) Table {
	return Table{
		edges: make([]Edge, 0, capacity),
		index: make(map[pairKey]int, capacity),
	}
}

// FromEdges builds a table out of a flat edge list. When the list
// repeats an ordered pair the first occurrence wins, matching the
// precedence rule of Merge.
func FromEdges(edges []Edge) Table {
	t := newTable(len(edges))
	for _, e := range edges {
		t.insert(e)
	}
	return t
}

// BuildTable crosses the item list of one page with its score matrix
// into the n*n directed edges the page describes, self-pairs included.
// The inputs must line up exactly: row i of the matrix belongs to the
// item at position i and carries one score per item.
func BuildTable(items []Item, matrix [][]Score) (Table, error) {
	if len(matrix) != len(items) {
		return Table{}, fmt.Errorf(
			"matrix has %d rows for %d items",
			len(matrix), len(items),
		)
	}

	t := newTable(len(items) * len(items))
	for i, a := range items {
		if a.Position != i {
			return Table{}, fmt.Errorf(
				"item %q has position %d but sits at index %d",
				a.Id, a.Position, i,
			)
		}
		row := matrix[i]
		if len(row) != len(items) {
			return Table{}, fmt.Errorf(
				"matrix row %d has %d scores for %d items",
				i, len(row), len(items),
			)
		}
		for j, b := range items {
			ok := t.insert(Edge{
				ItemA:     a.Id,
				ItemB:     b.Id,
				Closeness: row[j],
			})
			if !ok {
				// only possible when two items normalized to the same id
				return Table{}, fmt.Errorf(
					"duplicate pair (%s, %s)", a.Id, b.Id,
				)
			}
		}
	}
	return t, nil
}
