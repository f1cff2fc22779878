// Package textutil has small text helpers shared by the lookup paths.
package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// FoldName reduces a display name to a comparison key: lowercased with
// the whitespace stripped out, so "The  Beatles\n" and "the beatles"
// fold to the same string. Ids go through lib/slug instead, folding is
// only for fuzzy lookups over names.
func FoldName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	return whitespaceRegex.ReplaceAllString(name, "")
}
