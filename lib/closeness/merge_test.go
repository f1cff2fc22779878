package closeness

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMergeWithItselfIsIdentity(t *testing.T) {
	matrix := [][]Score{
		{Known(100), Known(61), Known(42)},
		{Known(61), Known(100), {}},
		{Known(42), {}, Known(100)},
	}
	table, err := BuildTable(threeItems(), matrix)
	require.Nil(t, err)

	merged := Merge(table, table)
	diff := cmp.Diff(table.Edges(), merged.Edges())
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestMergeBaseWinsOnConflict(t *testing.T) {
	base := FromEdges([]Edge{
		{ItemA: "a", ItemB: "b", Closeness: Known(0.5)},
	})
	incoming := FromEdges([]Edge{
		{ItemA: "a", ItemB: "b", Closeness: Known(0.9)},
		{ItemA: "b", ItemB: "a", Closeness: Known(0.3)},
	})

	merged := Merge(base, incoming)
	require.Equal(t, 2, merged.Len())

	score, ok := merged.Lookup("a", "b")
	require.True(t, ok)
	require.Equal(t, Known(0.5), score)

	score, ok = merged.Lookup("b", "a")
	require.True(t, ok)
	require.Equal(t, Known(0.3), score)
}

func TestMergeKeepsUnknownScores(t *testing.T) {
	base := FromEdges([]Edge{
		{ItemA: "a", ItemB: "b"},
	})
	incoming := FromEdges([]Edge{
		{ItemA: "a", ItemB: "b", Closeness: Known(0.9)},
	})

	merged := Merge(base, incoming)
	score, ok := merged.Lookup("a", "b")
	require.True(t, ok)
	require.False(t, score.Known)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := FromEdges([]Edge{
		{ItemA: "a", ItemB: "b", Closeness: Known(0.5)},
		{ItemA: "a", ItemB: "c", Closeness: Known(0.6)},
	})
	incoming := FromEdges([]Edge{
		{ItemA: "a", ItemB: "b", Closeness: Known(0.9)},
		{ItemA: "c", ItemB: "a", Closeness: Known(0.1)},
	})

	baseBefore := append([]Edge{}, base.Edges()...)
	incomingBefore := append([]Edge{}, incoming.Edges()...)

	Merge(base, incoming)

	require.Equal(t, baseBefore, base.Edges())
	require.Equal(t, incomingBefore, incoming.Edges())
}

func TestMergeAppendsIncomingAfterBase(t *testing.T) {
	base := FromEdges([]Edge{
		{ItemA: "a", ItemB: "a", Closeness: Known(100)},
	})
	incoming := FromEdges([]Edge{
		{ItemA: "b", ItemB: "b", Closeness: Known(100)},
		{ItemA: "a", ItemB: "a", Closeness: Known(50)},
		{ItemA: "a", ItemB: "b", Closeness: Known(61)},
	})

	merged := Merge(base, incoming)
	want := []Edge{
		{ItemA: "a", ItemB: "a", Closeness: Known(100)},
		{ItemA: "b", ItemB: "b", Closeness: Known(100)},
		{ItemA: "a", ItemB: "b", Closeness: Known(61)},
	}
	diff := cmp.Diff(want, merged.Edges())
	if diff != "" {
		t.Fatal(diff)
	}
}
