// Package feeds manages the feed URL list stored as a plain text file in
// the data directory, one URL per line.
package feeds

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// List is a file-backed feed URL list.
type List struct {
	path string
}

func NewList(path string) *List {
	return &List{path: path}
}

// Path returns the backing file location.
func (l *List) Path() string {
	return l.path
}

// Load returns the configured feed URLs. A missing file means no feeds have
// been configured yet and yields an empty list, not an error.
func (l *List) Load() ([]string, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading feed list: %w", err)
	}

	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

// Save validates and writes the feed URLs, replacing the previous list. The
// write goes through a temp file so a crash never leaves a half-written
// list behind.
func (l *List) Save(urls []string) error {
	for _, raw := range urls {
		if err := validateFeedURL(raw); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp := l.path + ".tmp"
	content := strings.Join(urls, "\n")
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing feed list: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replacing feed list: %w", err)
	}
	return nil
}

func validateFeedURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid feed URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid feed URL %q: scheme must be http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid feed URL %q: missing host", raw)
	}
	return nil
}
