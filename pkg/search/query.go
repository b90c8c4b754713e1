package search

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/rubiojr/newsbin/pkg/storage"
)

// SearchParams represents all parameters for a search operation, parsed
// from the request query string.
type SearchParams struct {
	// GeneralQuery is the single cross-field query. It only applies when
	// none of the advanced parameters below are present.
	GeneralQuery string

	// TextQuery, URLQuery and HTMLQuery target the full_text, url and
	// html columns respectively. Any of them (or a date bound) switches
	// the request into advanced mode.
	TextQuery string
	URLQuery  string
	HTMLQuery string

	// StartTime and EndTime are partial date strings (YYYY, YYYY-MM, ...).
	StartTime string
	EndTime   string

	// Page is 1-based and defaults to 1.
	Page int

	// PerPage defaults to 10.
	PerPage int

	// SortBy is "time" or "url"; anything else falls back to "time".
	SortBy string

	// SortOrder is "asc" or "desc"; anything else falls back to "desc".
	SortOrder string
}

// advancedFields maps advanced query parameters onto their columns. The
// table drives both mode detection and compilation, so adding a searchable
// field is a one-line change.
var advancedFields = []struct {
	query  func(SearchParams) string
	column string
}{
	{func(p SearchParams) string { return p.TextQuery }, "full_text"},
	{func(p SearchParams) string { return p.URLQuery }, "url"},
	{func(p SearchParams) string { return p.HTMLQuery }, "html"},
}

// Advanced reports whether any field-targeted input is present. Advanced
// mode wins over the general query when both are supplied.
func (p SearchParams) Advanced() bool {
	for _, field := range advancedFields {
		if field.query(p) != "" {
			return true
		}
	}
	return p.StartTime != "" || p.EndTime != ""
}

// ParseSearchParams parses HTTP query parameters into SearchParams,
// providing defaults for missing or invalid values. Unknown sort fields and
// orders are silently coerced, never an error.
func ParseSearchParams(queryParams map[string][]string) SearchParams {
	first := func(key string) string {
		if v := queryParams[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	params := SearchParams{
		GeneralQuery: first("generalQuery"),
		TextQuery:    first("textQuery"),
		URLQuery:     first("urlQuery"),
		HTMLQuery:    first("htmlQuery"),
		StartTime:    first("startTime"),
		EndTime:      first("endTime"),
		Page:         1,
		PerPage:      10,
		SortBy:       "time",
		SortOrder:    "desc",
	}

	if parsed, err := strconv.Atoi(first("page")); err == nil && parsed > 0 {
		params.Page = parsed
	}
	if parsed, err := strconv.Atoi(first("per_page")); err == nil && parsed > 0 {
		params.PerPage = parsed
	}
	if sortBy := first("sort_by"); sortBy == "time" || sortBy == "url" {
		params.SortBy = sortBy
	}
	if sortOrder := first("sort_order"); sortOrder == "asc" || sortOrder == "desc" {
		params.SortOrder = sortOrder
	}

	return params
}

// Query is an assembled predicate ready for execution: a WHERE expression
// with its named bindings plus the ORDER BY clause the request resolved to.
type Query struct {
	Where   string
	Args    []any
	OrderBy string
}

// BuildQuery assembles the full predicate for a request.
//
// Advanced mode compiles each field-targeted query independently and ANDs
// them together with the date bounds. General mode compiles the single query
// once, with every term distributed as OR across the general columns. A
// date string no format accepts renders its bound unsatisfiable (1=0), so a
// clearly wrong filter returns zero rows instead of silently widening the
// search.
func BuildQuery(params SearchParams) Query {
	var (
		conditions []string
		args       []any
	)

	if params.Advanced() {
		for _, field := range advancedFields {
			input := field.query(params)
			if input == "" {
				continue
			}
			pred := CompileField(Parse(input), field.column)
			conditions = append(conditions, "("+pred.SQL+")")
			args = append(args, pred.Args...)
		}

		for _, bound := range []struct {
			value    string
			operator string
			param    string
			isEnd    bool
		}{
			{params.StartTime, ">=", "start_time", false},
			{params.EndTime, "<=", "end_time", true},
		} {
			if bound.value == "" {
				continue
			}
			resolved, ok := ResolveDate(bound.value, bound.isEnd)
			if !ok {
				conditions = append(conditions, "1=0")
				continue
			}
			conditions = append(conditions, "time "+bound.operator+" :"+bound.param)
			args = append(args, sql.Named(bound.param, resolved.Format(storage.TimeLayout)))
		}
	} else if params.GeneralQuery != "" {
		pred := CompileGeneral(Parse(params.GeneralQuery))
		conditions = append(conditions, "("+pred.SQL+")")
		args = append(args, pred.Args...)
	}

	where := "1=1"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	return Query{
		Where:   where,
		Args:    args,
		OrderBy: orderClause(params.SortBy, params.SortOrder),
	}
}

func orderClause(sortBy, sortOrder string) string {
	if sortBy != "time" && sortBy != "url" {
		sortBy = "time"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	return sortBy + " " + strings.ToUpper(sortOrder)
}
