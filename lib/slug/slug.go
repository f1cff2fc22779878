package slug

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	punctuation = regexp.MustCompile(`[&/'":?]`)
	underscores = regexp.MustCompile(`_{2,}`)
	nonIdent    = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	numeric     = regexp.MustCompile(`^[0-9]+$`)
)

// Normalize converts a raw identifier, usually the query fragment of a
// map page href, into its canonical form. The result only ever contains
// [a-zA-Z0-9_] and never starts with a digit, so it is safe to use as a
// database key or a file name. Normalizing an already normalized id is
// a no-op.
func Normalize(raw string) string {
	out := strings.ReplaceAll(raw, "+", "_")
	// hrefs are percent-encoded, typed-in names usually aren't.
	// a failed decode just means there was nothing to decode.
	decoded, err := url.QueryUnescape(out)
	if err == nil {
		out = decoded
	}
	out = punctuation.ReplaceAllString(out, "")
	out = underscores.ReplaceAllString(out, "_")
	out = nonIdent.ReplaceAllString(out, "")
	if numeric.MatchString(out) {
		out = "i" + out
	}
	return out
}
