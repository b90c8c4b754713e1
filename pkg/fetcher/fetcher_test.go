package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/newsbin/pkg/feeds"
	"github.com/rubiojr/newsbin/pkg/storage"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Test article</title></head>
<body>
<article>
<h1>Test article</h1>
<p>This is the readable body of the article. It has enough prose in it for
the extractor to pick up, repeated a few times to look like a real page.
This is the readable body of the article. It has enough prose in it for
the extractor to pick up, repeated a few times to look like a real page.</p>
</article>
</body>
</html>`

func feedXML(serverURL string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test feed</title>
    <item>
      <title>Good article</title>
      <link>%s/articles/1</link>
      <description>Fallback description one</description>
      <pubDate>Mon, 01 Mar 2021 12:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Dead link</title>
      <link>%s/articles/missing</link>
      <description>Fallback description two</description>
      <pubDate>Tue, 02 Mar 2021 12:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`, serverURL, serverURL)
}

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML(ts.URL))
	})
	mux.HandleFunc("/articles/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage)
	})
	ts = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestFetcher(t *testing.T, feedURLs []string) (*Fetcher, *storage.Storage) {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.Open(filepath.Join(dir, "articles.db"))
	if err != nil {
		t.Fatalf("opening storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	feedsPath := filepath.Join(dir, "feeds.txt")
	if len(feedURLs) > 0 {
		if err := os.WriteFile(feedsPath, []byte(strings.Join(feedURLs, "\n")+"\n"), 0644); err != nil {
			t.Fatalf("writing feeds file: %v", err)
		}
	}

	f := New(feeds.NewList(feedsPath), store, Options{RequestTimeout: 5 * time.Second})
	return f, store
}

func TestRunNoFeeds(t *testing.T) {
	f, store := newTestFetcher(t, nil)

	stored, err := f.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stored != 0 {
		t.Errorf("stored = %d, want 0", stored)
	}
	// Schema is only created once there is something to fetch.
	if err := store.CheckReady(); err == nil {
		t.Error("schema created despite empty feed list")
	}
}

func TestRunStoresArticles(t *testing.T) {
	ts := newFeedServer(t)
	f, store := newTestFetcher(t, []string{ts.URL + "/feed"})

	stored, err := f.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stored != 2 {
		t.Fatalf("stored = %d, want 2", stored)
	}

	rows, err := store.Articles(context.Background(), nil)
	if err != nil {
		t.Fatalf("querying: %v", err)
	}
	defer rows.Close()

	var articles []storage.Article
	for rows.Next() {
		a, err := storage.ScanArticle(rows)
		if err != nil {
			t.Fatalf("scanning: %v", err)
		}
		articles = append(articles, a)
	}
	if len(articles) != 2 {
		t.Fatalf("rows = %d, want 2", len(articles))
	}

	good := articles[0]
	if !strings.Contains(good.FullText, "readable body of the article") {
		t.Errorf("extracted text = %q", good.FullText)
	}
	if !strings.Contains(good.HTML, "<article>") {
		t.Errorf("raw html not stored: %q", good.HTML)
	}
	if good.Time.IsZero() {
		t.Error("publication time not parsed")
	}

	// The dead link degrades to the feed description.
	dead := articles[1]
	if dead.FullText != "Fallback description two" {
		t.Errorf("fallback text = %q", dead.FullText)
	}
	if dead.HTML != "" {
		t.Errorf("dead link stored html %q", dead.HTML)
	}
}

func TestRunSkipsKnownArticles(t *testing.T) {
	ts := newFeedServer(t)
	f, _ := newTestFetcher(t, []string{ts.URL + "/feed"})

	if _, err := f.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	stored, err := f.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stored != 0 {
		t.Errorf("second run stored = %d, want 0", stored)
	}
}

func TestRunBadFeedSkipped(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(bad.Close)

	good := newFeedServer(t)
	f, _ := newTestFetcher(t, []string{bad.URL + "/feed", good.URL + "/feed"})

	stored, err := f.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stored != 2 {
		t.Errorf("stored = %d, want 2 from the healthy feed", stored)
	}
}

func TestRunCancelled(t *testing.T) {
	ts := newFeedServer(t)
	f, _ := newTestFetcher(t, []string{ts.URL + "/feed"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Run(ctx); err == nil {
		t.Error("run with cancelled context returned nil error")
	}
}
