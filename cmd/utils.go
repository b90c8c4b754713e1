package cmd

import (
	"fmt"

	"github.com/rubiojr/newsbin/pkg/config"
	"github.com/rubiojr/newsbin/pkg/feeds"
	"github.com/rubiojr/newsbin/pkg/fetcher"
	"github.com/rubiojr/newsbin/pkg/storage"
)

// components bundles everything a command needs against one data
// directory. Close releases the database.
type components struct {
	cfg     *config.Config
	store   *storage.Storage
	feeds   *feeds.List
	fetcher *fetcher.Fetcher
}

func openComponents(configPath string) (*components, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	list := feeds.NewList(cfg.FeedsPath())
	f := fetcher.New(list, store, fetcherOptions(cfg))

	return &components{
		cfg:     cfg,
		store:   store,
		feeds:   list,
		fetcher: f,
	}, nil
}

func (c *components) Close() {
	if err := c.store.Close(); err != nil {
		fmt.Printf("Warning: failed to close storage: %v\n", err)
	}
}

func fetcherOptions(cfg *config.Config) fetcher.Options {
	return fetcher.Options{
		MaxItemsPerFeed: cfg.MaxItemsPerFeed,
		RequestTimeout:  cfg.RequestTimeout.Duration,
	}
}
