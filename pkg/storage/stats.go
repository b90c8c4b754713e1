package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// NameCount is a single aggregation bucket.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats aggregates article counts by domain, by domain/first-subdirectory
// and by publication day. When ids is non-empty only those rows are counted.
type Stats struct {
	Domains        []NameCount `json:"domains"`
	Subdirectories []NameCount `json:"subdirectories"`
	Dates          []NameCount `json:"dates"`
}

// GetStats computes aggregate statistics over the stored articles. The
// bucketing happens here rather than in SQL; the url munging is much easier
// to read in Go.
func (s *Storage) GetStats(ctx context.Context, ids []int64) (*Stats, error) {
	if err := s.CheckReady(); err != nil {
		return nil, err
	}

	query := "SELECT url, time FROM articles" + idListClause(ids)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying stats rows: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	domains := make(map[string]int)
	subdirs := make(map[string]int)
	dates := make(map[string]int)

	for rows.Next() {
		var url string
		var pubTime sql.NullString
		if err := rows.Scan(&url, &pubTime); err != nil {
			return nil, fmt.Errorf("scanning stats row: %w", err)
		}

		domain, subdir := splitURL(url)
		domains[domain]++
		subdirs[subdir]++

		if pubTime.Valid && len(pubTime.String) >= 10 {
			dates[pubTime.String[:10]]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stats rows: %w", err)
	}

	return &Stats{
		Domains:        sortedCounts(domains, false),
		Subdirectories: sortedCounts(subdirs, false),
		Dates:          sortedCounts(dates, true),
	}, nil
}

// splitURL reduces a URL to its domain ("host") and its domain plus first
// path segment ("host/section").
func splitURL(url string) (domain, subdir string) {
	trimmed := strings.TrimPrefix(url, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")

	parts := strings.SplitN(trimmed, "/", 3)
	domain = parts[0]
	subdir = domain
	if len(parts) > 1 && parts[1] != "" {
		subdir = domain + "/" + parts[1]
	}
	return domain, subdir
}

func sortedCounts(m map[string]int, byName bool) []NameCount {
	counts := make([]NameCount, 0, len(m))
	for name, count := range m {
		counts = append(counts, NameCount{Name: name, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if byName {
			return counts[i].Name < counts[j].Name
		}
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	return counts
}
