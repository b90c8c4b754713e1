package search

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rubiojr/newsbin/pkg/storage"
)

// Row is one article in a result page.
type Row struct {
	Time     string `json:"time"`
	URL      string `json:"url"`
	FullText string `json:"full_text"`
}

// Results contains one page of matches plus pagination metadata. IDs holds
// the complete ordered match set, not just the current page, and SearchID
// is the token an export request passes to reuse that set.
type Results struct {
	Rows       []Row
	TotalCount int
	Page       int
	PerPage    int
	IDs        []int64
	SearchID   string
}

// Service executes compiled queries against the article store.
type Service struct {
	store   *storage.Storage
	results *resultCache
}

func NewService(store *storage.Storage) *Service {
	return &Service{
		store:   store,
		results: newResultCache(),
	}
}

// Search compiles params and runs the three-phase materialization: a count
// over the predicate, the paginated page query and the unpaginated id query.
// The page is clamped to the last non-empty page before fetching rows.
//
// A missing articles table surfaces as storage.ErrNoArticles before any
// query runs; any other failure aborts the whole operation.
func (s *Service) Search(ctx context.Context, params SearchParams) (*Results, error) {
	if err := s.store.CheckReady(); err != nil {
		return nil, err
	}

	query := BuildQuery(params)
	db := s.store.DB()

	var totalCount int
	countSQL := "SELECT COUNT(*) FROM articles WHERE " + query.Where
	if err := db.QueryRowContext(ctx, countSQL, query.Args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("counting matches: %w", err)
	}

	page := params.Page
	totalPages := (totalCount + params.PerPage - 1) / params.PerPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	rows, err := s.fetchPage(ctx, query, page, params.PerPage)
	if err != nil {
		return nil, err
	}

	ids, err := s.fetchIDs(ctx, query)
	if err != nil {
		return nil, err
	}

	return &Results{
		Rows:       rows,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    params.PerPage,
		IDs:        ids,
		SearchID:   s.results.Put(ids),
	}, nil
}

// LookupResult resolves a search token handed out by a previous Search call
// to its full id set.
func (s *Service) LookupResult(token string) ([]int64, bool) {
	if token == "" {
		return nil, false
	}
	return s.results.Lookup(token)
}

func (s *Service) fetchPage(ctx context.Context, query Query, page, perPage int) ([]Row, error) {
	pageSQL := "SELECT time, url, full_text FROM articles WHERE " + query.Where +
		" ORDER BY " + query.OrderBy + " LIMIT :per_page OFFSET :offset"
	args := append(append([]any{}, query.Args...),
		sql.Named("per_page", perPage),
		sql.Named("offset", (page-1)*perPage),
	)

	rows, err := s.store.DB().QueryContext(ctx, pageSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("querying page: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]Row, 0, perPage)
	for rows.Next() {
		var t, url, fullText sql.NullString
		if err := rows.Scan(&t, &url, &fullText); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		results = append(results, Row{
			Time:     t.String,
			URL:      url.String,
			FullText: fullText.String,
		})
	}
	return results, rows.Err()
}

func (s *Service) fetchIDs(ctx context.Context, query Query) ([]int64, error) {
	idSQL := "SELECT id FROM articles WHERE " + query.Where + " ORDER BY " + query.OrderBy

	rows, err := s.store.DB().QueryContext(ctx, idSQL, query.Args...)
	if err != nil {
		return nil, fmt.Errorf("querying match ids: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning match id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
