package gnod

import "errors"

// Every failure that comes out of this package wraps exactly one of
// these, so callers can class errors with errors.Is without looking at
// message text. Extraction is all-or-nothing: whichever class fires,
// no partial result is ever returned alongside it.
var (
	// the page could not be retrieved at all, network errors and
	// non-200 statuses both land here
	ErrFetch = errors.New("failed to fetch page")
	// the retrieved document doesn't look like a map page, either the
	// suggestion list or the script holding the matrix is gone
	ErrStructuralMismatch = errors.New("page structure mismatch")
	// the page has the right shape but a value inside it doesn't,
	// reported with the position that broke
	ErrParse = errors.New("malformed page data")
)
