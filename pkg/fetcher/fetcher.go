// Package fetcher downloads the configured RSS/Atom feeds, pulls each new
// item's page and stores the raw HTML together with a readability-extracted
// full text.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/rubiojr/newsbin/pkg/feeds"
	"github.com/rubiojr/newsbin/pkg/log"
	"github.com/rubiojr/newsbin/pkg/storage"
)

const userAgent = "newsbin/1.0 RSS Reader"

// maxArticleBytes caps how much of an article page is kept.
const maxArticleBytes = 4 << 20

type Options struct {
	// MaxItemsPerFeed caps ingested items per feed per run.
	MaxItemsPerFeed int

	// RequestTimeout bounds every feed and article request.
	RequestTimeout time.Duration
}

type Fetcher struct {
	list   *feeds.List
	store  *storage.Storage
	logger *log.Logger

	mu     sync.Mutex
	client *http.Client
	opts   Options
}

func New(list *feeds.List, store *storage.Storage, opts Options) *Fetcher {
	f := &Fetcher{
		list:   list,
		store:  store,
		logger: log.ForService("fetcher"),
	}
	f.SetOptions(opts)
	return f
}

// SetOptions replaces the fetch limits, e.g. after a config reload. An
// in-flight run keeps the client it started with.
func (f *Fetcher) SetOptions(opts Options) {
	if opts.MaxItemsPerFeed <= 0 {
		opts.MaxItemsPerFeed = 50
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	f.mu.Lock()
	f.opts = opts
	f.client = &http.Client{Timeout: opts.RequestTimeout}
	f.mu.Unlock()
}

func (f *Fetcher) options() Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts
}

func (f *Fetcher) httpClient() *http.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client
}

// Run fetches every configured feed once and stores the new articles.
// Returns the number of newly stored articles. A feed that fails to
// download or parse is logged and skipped; the run only errors when storage
// itself fails or the context is cancelled.
func (f *Fetcher) Run(ctx context.Context) (int, error) {
	urls, err := f.list.Load()
	if err != nil {
		return 0, err
	}
	if len(urls) == 0 {
		f.logger.Infof("no feeds configured, nothing to fetch")
		return 0, nil
	}

	if err := f.store.InitSchema(); err != nil {
		return 0, err
	}

	f.logger.Infof("fetching %d feeds", len(urls))

	total := 0
	for _, feedURL := range urls {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		stored, err := f.fetchFeed(ctx, feedURL)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			f.logger.Errorf("feed %s: %v", feedURL, err)
			continue
		}
		total += stored

		// Small delay between feeds to be respectful
		time.Sleep(100 * time.Millisecond)
	}

	f.logger.Infof("stored %d new articles", total)
	return total, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, feedURL string) (int, error) {
	items, err := f.downloadFeed(ctx, feedURL)
	if err != nil {
		return 0, err
	}

	if max := f.options().MaxItemsPerFeed; len(items) > max {
		items = items[:max]
	}

	var articles []storage.Article
	for _, item := range items {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		if item.Link == "" {
			continue
		}
		known, err := f.store.HasURL(item.Link)
		if err != nil {
			return 0, err
		}
		if known {
			continue
		}

		article := f.downloadArticle(ctx, item)
		articles = append(articles, article)
	}

	stored, err := f.store.SaveArticles(articles)
	if err != nil {
		return 0, fmt.Errorf("storing articles: %w", err)
	}
	f.logger.Debugf("feed %s: %d items, %d new", feedURL, len(items), stored)
	return stored, nil
}

// downloadArticle fetches the item's page and extracts its readable text.
// Download or extraction failures degrade to the feed-provided description
// so one dead link never sinks a whole run.
func (f *Fetcher) downloadArticle(ctx context.Context, item Item) storage.Article {
	article := storage.Article{
		URL:          item.Link,
		FullText:     item.Description,
		Time:         item.Published,
		DownloadTime: time.Now().UTC(),
	}

	html, err := f.get(ctx, item.Link)
	if err != nil {
		f.logger.Warnf("article %s: %v", item.Link, err)
		return article
	}
	article.HTML = html

	pageURL, err := url.Parse(item.Link)
	if err != nil {
		return article
	}
	extracted, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		f.logger.Debugf("readability %s: %v", item.Link, err)
		return article
	}
	if text := strings.TrimSpace(extracted.TextContent); text != "" {
		article.FullText = text
	}
	return article
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
