package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetStatsBeforeSchema(t *testing.T) {
	store := newTestStorage(t)

	if _, err := store.GetStats(context.Background(), nil); !errors.Is(err, ErrNoArticles) {
		t.Errorf("GetStats = %v, want ErrNoArticles", err)
	}
}

func TestGetStats(t *testing.T) {
	store := newTestStorage(t)
	if err := store.InitSchema(); err != nil {
		t.Fatalf("initializing schema: %v", err)
	}

	articles := append(testArticles(), Article{
		URL:          "https://news.example.com/politics/delta",
		FullText:     "Delta body",
		Time:         time.Date(2021, 3, 1, 18, 0, 0, 0, time.UTC),
		DownloadTime: time.Date(2021, 3, 1, 18, 5, 0, 0, time.UTC),
	})
	if _, err := store.SaveArticles(articles); err != nil {
		t.Fatalf("saving: %v", err)
	}

	stats, err := store.GetStats(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}

	// Most frequent domain first.
	if len(stats.Domains) != 2 {
		t.Fatalf("domains = %v", stats.Domains)
	}
	if stats.Domains[0].Name != "news.example.com" || stats.Domains[0].Count != 3 {
		t.Errorf("top domain = %+v", stats.Domains[0])
	}

	wantSubdirs := map[string]int{
		"news.example.com/politics": 2,
		"news.example.com/sports":   1,
		"blog.example.org/gamma":    1,
	}
	if len(stats.Subdirectories) != len(wantSubdirs) {
		t.Fatalf("subdirectories = %v", stats.Subdirectories)
	}
	for _, nc := range stats.Subdirectories {
		if wantSubdirs[nc.Name] != nc.Count {
			t.Errorf("subdirectory %q count = %d, want %d", nc.Name, nc.Count, wantSubdirs[nc.Name])
		}
	}

	// Dates sorted ascending by day.
	if len(stats.Dates) != 3 {
		t.Fatalf("dates = %v", stats.Dates)
	}
	if stats.Dates[0].Name != "2021-03-01" || stats.Dates[0].Count != 2 {
		t.Errorf("first date = %+v", stats.Dates[0])
	}
	if stats.Dates[2].Name != "2021-04-01" {
		t.Errorf("last date = %+v", stats.Dates[2])
	}
}

func TestGetStatsFiltered(t *testing.T) {
	store := newTestStorage(t)
	if err := store.InitSchema(); err != nil {
		t.Fatalf("initializing schema: %v", err)
	}
	if _, err := store.SaveArticles(testArticles()); err != nil {
		t.Fatalf("saving: %v", err)
	}

	stats, err := store.GetStats(context.Background(), []int64{3})
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if len(stats.Domains) != 1 || stats.Domains[0].Name != "blog.example.org" {
		t.Errorf("filtered domains = %v", stats.Domains)
	}
}

func TestSplitURL(t *testing.T) {
	tests := []struct {
		url    string
		domain string
		subdir string
	}{
		{"https://news.example.com/politics/alpha", "news.example.com", "news.example.com/politics"},
		{"http://example.org/a", "example.org", "example.org/a"},
		{"https://example.org", "example.org", "example.org"},
		{"https://example.org/", "example.org", "example.org"},
		{"example.org/x/y", "example.org", "example.org/x"},
	}
	for _, tt := range tests {
		domain, subdir := splitURL(tt.url)
		if domain != tt.domain || subdir != tt.subdir {
			t.Errorf("splitURL(%q) = %q, %q, want %q, %q", tt.url, domain, subdir, tt.domain, tt.subdir)
		}
	}
}
