package closeness

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrSchema is reported when a serialized table can't be interpreted
// as one, most commonly because a key column is missing entirely.
var ErrSchema = errors.New("malformed table schema")

const (
	colItemA     = "item_a"
	colItemB     = "item_b"
	colCloseness = "closeness"

	// what an unknown score serializes to
	naValue = "NA"
)

// WriteCsv serializes the table with an item_a,item_b,closeness header
// row. Unknown scores come out as NA, never as the -1 the site uses.
func WriteCsv(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	err := writer.Write([]string{colItemA, colItemB, colCloseness})
	if err != nil {
		return err
	}
	for _, e := range t.edges {
		err = writer.Write([]string{e.ItemA, e.ItemB, formatScore(e.Closeness)})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCsv is the inverse of WriteCsv. Columns are located by header
// name so their order doesn't matter, but a file without both key
// columns is rejected with ErrSchema. A missing closeness column
// degrades every score to unknown. Repeated pairs keep the first
// occurrence, like Merge does.
func ReadCsv(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return Table{}, fmt.Errorf("%w: no header row", ErrSchema)
	}
	if err != nil {
		return Table{}, err
	}

	idxA, idxB, idxScore := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case colItemA:
			idxA = i
		case colItemB:
			idxB = i
		case colCloseness:
			idxScore = i
		}
	}
	if idxA < 0 {
		return Table{}, fmt.Errorf("%w: missing column %q", ErrSchema, colItemA)
	}
	if idxB < 0 {
		return Table{}, fmt.Errorf("%w: missing column %q", ErrSchema, colItemB)
	}

	t := newTable(0)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, err
		}
		line++

		score := Score{}
		if idxScore >= 0 {
			score, err = parseScore(record[idxScore])
			if err != nil {
				return Table{}, fmt.Errorf("line %d: %w", line, err)
			}
		}
		t.insert(Edge{
			ItemA:     record[idxA],
			ItemB:     record[idxB],
			Closeness: score,
		})
	}
	return t, nil
}

func formatScore(s Score) string {
	if !s.Known {
		return naValue
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

func parseScore(raw string) (Score, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == naValue {
		return Score{}, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Score{}, fmt.Errorf("bad closeness value %q: %w", raw, err)
	}
	return Known(value), nil
}
