package search

import "strings"

// Term is a single signed condition produced by the parser. Index is the
// token's position in the input query, used to derive a unique parameter
// name during compilation.
type Term struct {
	Text    string
	Quoted  bool
	Negated bool
	Index   int
}

// Expression is the normalized form of a query: a disjunction of
// conjunctions. A row matches when every term of at least one group matches.
type Expression struct {
	Groups [][]Term
}

// Empty reports whether the expression carries no conditions at all, in
// which case it compiles to a tautology (match everything).
func (e Expression) Empty() bool {
	return len(e.Groups) == 0
}

// Parse consumes tokens left to right and produces an OR-of-ANDs expression.
//
// AND is the implicit connective between consecutive terms, so an explicit
// AND token is skipped. OR closes the current group. NOT negates exactly the
// next term. Terms that are empty after stripping quotes are dropped.
func Parse(query string) Expression {
	var (
		expr       Expression
		current    []Term
		negateNext bool
	)

	for i, token := range Tokenize(query) {
		switch strings.ToUpper(token) {
		case "AND":
			continue
		case "OR":
			if len(current) > 0 {
				expr.Groups = append(expr.Groups, current)
				current = nil
			}
		case "NOT":
			negateNext = true
		default:
			quoted := len(token) >= 2 && strings.HasPrefix(token, `"`) && strings.HasSuffix(token, `"`)
			text := strings.Trim(token, `"`)
			if text == "" {
				continue
			}
			current = append(current, Term{
				Text:    text,
				Quoted:  quoted,
				Negated: negateNext,
				Index:   i,
			})
			negateNext = false
		}
	}

	if len(current) > 0 {
		expr.Groups = append(expr.Groups, current)
	}

	return expr
}
