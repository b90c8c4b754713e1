package search

import (
	"database/sql"
	"fmt"
	"strings"
)

// Sentinel and escape markers of the query language.
const (
	noTextSentinel = "NOTEXT"
	escPercent     = "ESC%"
	escUnderscore  = "ESC_"
)

// generalColumns are the columns a general (cross-field) query is matched
// against. Adding a field here is all it takes to widen general search.
var generalColumns = []string{"full_text", "url", "CAST(time AS TEXT)"}

// generalEmptyCheck is the compiled form of the NOTEXT sentinel in general
// mode: the article has no text or no url.
const generalEmptyCheck = "(full_text IS NULL OR full_text = '' OR url IS NULL OR url = '')"

// Predicate is a compiled boolean expression with its named bindings. The
// SQL references each parameter in Args at least once, and every parameter
// name is bound exactly once.
type Predicate struct {
	SQL  string
	Args []any
}

// Tautology returns a predicate that matches every row.
func Tautology() Predicate {
	return Predicate{SQL: "1=1"}
}

// CompileField renders an expression against a single column. Parameter
// names combine the column name with the term's token index so several
// fields can compile into one assembled query without collisions.
func CompileField(expr Expression, column string) Predicate {
	return compile(expr, func(term Term) (string, []any) {
		param := fmt.Sprintf("%s_q_%d", column, term.Index)
		return compileTerm(term, []string{column}, fmt.Sprintf("(%s IS NULL OR %s = '')", column, column), param)
	})
}

// CompileGeneral renders an expression where each term matches if any of the
// general columns contains it. A single parameter is shared by the per-column
// comparisons of one term.
func CompileGeneral(expr Expression) Predicate {
	return compile(expr, func(term Term) (string, []any) {
		param := fmt.Sprintf("q_%d", term.Index)
		return compileTerm(term, generalColumns, generalEmptyCheck, param)
	})
}

// compile walks the OR-of-ANDs structure and joins the rendered conditions.
// An empty expression yields the tautology, the documented "no filter"
// behavior.
func compile(expr Expression, render func(Term) (string, []any)) Predicate {
	if expr.Empty() {
		return Tautology()
	}

	var (
		orParts []string
		args    []any
	)
	for _, group := range expr.Groups {
		andParts := make([]string, 0, len(group))
		for _, term := range group {
			condition, termArgs := render(term)
			andParts = append(andParts, condition)
			args = append(args, termArgs...)
		}
		orParts = append(orParts, "("+strings.Join(andParts, " AND ")+")")
	}

	return Predicate{
		SQL:  strings.Join(orParts, " OR "),
		Args: args,
	}
}

// compileTerm renders one term against the given columns, OR-ing the
// per-column comparisons when more than one column is in play.
//
// Three term kinds exist:
//   - the NOTEXT sentinel compiles to the provided empty-field check and
//     binds nothing;
//   - terms carrying an ESC marker before % or _ compile to a
//     backslash-escaped LIKE with the value used verbatim;
//   - plain terms (and quoted phrases) compile to a substring LIKE with the
//     value wildcard-wrapped.
func compileTerm(term Term, columns []string, emptyCheck, param string) (string, []any) {
	var (
		condition string
		args      []any
	)

	switch {
	case term.Text == noTextSentinel:
		condition = emptyCheck
	case strings.Contains(term.Text, escPercent) || strings.Contains(term.Text, escUnderscore):
		value := strings.ReplaceAll(term.Text, escPercent, `\%`)
		value = strings.ReplaceAll(value, escUnderscore, `\_`)
		comparisons := make([]string, len(columns))
		for i, col := range columns {
			comparisons[i] = fmt.Sprintf(`%s LIKE :%s ESCAPE '\'`, col, param)
		}
		condition = "(" + strings.Join(comparisons, " OR ") + ")"
		args = append(args, sql.Named(param, value))
	default:
		comparisons := make([]string, len(columns))
		for i, col := range columns {
			comparisons[i] = fmt.Sprintf("%s LIKE :%s", col, param)
		}
		condition = "(" + strings.Join(comparisons, " OR ") + ")"
		args = append(args, sql.Named(param, "%"+term.Text+"%"))
	}

	if term.Negated {
		condition = "NOT " + condition
	}

	return condition, args
}
