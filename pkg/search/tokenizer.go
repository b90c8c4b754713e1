package search

import "regexp"

// tokenPattern matches a double-quoted phrase first, then any run of
// non-whitespace. Quotes stay attached to the token; the parser strips them.
var tokenPattern = regexp.MustCompile(`"[^"]*"|\S+`)

// Tokenize splits a raw query string into terms, quoted phrases and
// operator words. An empty input yields no tokens.
func Tokenize(query string) []string {
	return tokenPattern.FindAllString(query, -1)
}
