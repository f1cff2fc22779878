package closeness

// Merge combines two tables into a new one without touching either
// input. Edges from base are taken first, then edges from incoming,
// and once an ordered pair has been seen every later edge for it is
// dropped. So on conflict base wins, and merging a table into itself
// returns an equal table.
func Merge(base, incoming Table) Table {
	merged := newTable(base.Len() + incoming.Len())
	for _, e := range base.edges {
		merged.insert(e)
	}
	for _, e := range incoming.edges {
		merged.insert(e)
	}
	return merged
}
