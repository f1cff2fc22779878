package closeness

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func threeItems() []Item {
	return []Item{
		{Id: "the_beatles", Name: "The Beatles", SourceRef: "the+beatles", Position: 0},
		{Id: "the_kinks", Name: "The Kinks", SourceRef: "the+kinks", Position: 1},
		{Id: "the_who", Name: "The Who", SourceRef: "the+who", Position: 2},
	}
}

func TestBuildTable(t *testing.T) {
	matrix := [][]Score{
		{Known(100), Known(61), Known(42)},
		{Known(61), Known(100), {}},
		{Known(42), {}, Known(100)},
	}

	table, err := BuildTable(threeItems(), matrix)
	require.Nil(t, err)
	require.Equal(t, 9, table.Len())

	selfPairs := 0
	for _, e := range table.Edges() {
		if e.ItemA == e.ItemB {
			selfPairs++
		}
	}
	require.Equal(t, 3, selfPairs)

	score, ok := table.Lookup("the_beatles", "the_who")
	require.True(t, ok)
	require.Equal(t, Known(42), score)

	// the -1 placeholder rows arrive here as unknown scores and the
	// edge must survive as unknown, not get dropped
	score, ok = table.Lookup("the_kinks", "the_who")
	require.True(t, ok)
	require.False(t, score.Known)

	_, ok = table.Lookup("the_beatles", "nirvana")
	require.False(t, ok)
}

func TestBuildTableRowCountMismatch(t *testing.T) {
	matrix := [][]Score{
		{Known(100), Known(61), Known(42)},
		{Known(61), Known(100), Known(77)},
	}
	_, err := BuildTable(threeItems(), matrix)
	require.NotNil(t, err)
}

func TestBuildTableRaggedRow(t *testing.T) {
	matrix := [][]Score{
		{Known(100), Known(61), Known(42)},
		{Known(61), Known(100)},
		{Known(42), Known(77), Known(100)},
	}
	_, err := BuildTable(threeItems(), matrix)
	require.NotNil(t, err)
}

func TestBuildTableOutOfOrderPositions(t *testing.T) {
	items := threeItems()
	items[1].Position = 2
	items[2].Position = 1
	matrix := [][]Score{
		{Known(100), Known(61), Known(42)},
		{Known(61), Known(100), Known(77)},
		{Known(42), Known(77), Known(100)},
	}
	_, err := BuildTable(items, matrix)
	require.NotNil(t, err)
}

func TestBuildTableDuplicateIds(t *testing.T) {
	items := threeItems()
	items[2].Id = items[0].Id
	matrix := [][]Score{
		{Known(100), Known(61), Known(42)},
		{Known(61), Known(100), Known(77)},
		{Known(42), Known(77), Known(100)},
	}
	_, err := BuildTable(items, matrix)
	require.NotNil(t, err)
}

func TestFromEdgesFirstWins(t *testing.T) {
	table := FromEdges([]Edge{
		{ItemA: "a", ItemB: "b", Closeness: Known(0.5)},
		{ItemA: "a", ItemB: "b", Closeness: Known(0.9)},
		{ItemA: "b", ItemB: "a", Closeness: Known(0.7)},
	})
	require.Equal(t, 2, table.Len())

	score, ok := table.Lookup("a", "b")
	require.True(t, ok)
	require.Equal(t, Known(0.5), score)

	// (b, a) is a different ordered pair and must not collide
	score, ok = table.Lookup("b", "a")
	require.True(t, ok)
	require.Equal(t, Known(0.7), score)
}

func TestTableEdgesOrderIsStable(t *testing.T) {
	edges := []Edge{
		{ItemA: "c", ItemB: "a", Closeness: Known(1)},
		{ItemA: "a", ItemB: "a", Closeness: Known(2)},
		{ItemA: "b", ItemB: "c"},
	}
	table := FromEdges(edges)
	diff := cmp.Diff(edges, table.Edges())
	if diff != "" {
		t.Fatal(diff)
	}
}
