// Package search compiles the article query language into parameterized
// SQL predicates and executes them against the article store.
//
// # Overview
//
// A query is a whitespace-separated sequence of terms with three reserved
// operator words (AND, OR, NOT, matched case-insensitively), double-quoted
// phrases, a NOTEXT sentinel meaning "field is empty or absent" and an
// ESC marker that escapes the LIKE wildcards % and _.
//
// The pipeline is:
//
//	Tokenize -> Parse (OR of AND-groups) -> Compile (per-field or
//	cross-field predicate) -> Build (dates, sorting, pagination) ->
//	Execute (count, page, id set)
//
// Every literal value is carried as a uniquely named bound parameter;
// nothing from the query string is ever interpolated into SQL.
//
// # Usage
//
//	service := search.NewService(store)
//	params, _ := search.ParseSearchParams(r.URL.Query())
//	results, err := service.Search(ctx, params)
//
// The compiler stages (Tokenize, Parse, Compile*, BuildQuery) are pure
// functions and safe to use concurrently.
package search
