package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// FeedsCommand creates the feeds command
func FeedsCommand() *cli.Command {
	return &cli.Command{
		Name:  "feeds",
		Usage: "Manage the feed URL list",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List configured feeds",
				Action: func(ctx context.Context, c *cli.Command) error {
					return listFeeds(c.String("config"))
				},
			},
			{
				Name:      "add",
				Usage:     "Add a feed URL",
				ArgsUsage: "<url>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one feed URL")
					}
					return addFeed(c.String("config"), c.Args().First())
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a feed URL",
				ArgsUsage: "<url>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one feed URL")
					}
					return removeFeed(c.String("config"), c.Args().First())
				},
			},
		},
	}
}

func listFeeds(configPath string) error {
	comps, err := openComponents(configPath)
	if err != nil {
		return err
	}
	defer comps.Close()

	urls, err := comps.feeds.Load()
	if err != nil {
		return fmt.Errorf("loading feeds: %w", err)
	}
	if len(urls) == 0 {
		fmt.Println("No feeds configured")
		return nil
	}
	for _, url := range urls {
		fmt.Println(url)
	}
	return nil
}

func addFeed(configPath, url string) error {
	comps, err := openComponents(configPath)
	if err != nil {
		return err
	}
	defer comps.Close()

	urls, err := comps.feeds.Load()
	if err != nil {
		return fmt.Errorf("loading feeds: %w", err)
	}
	for _, existing := range urls {
		if existing == url {
			fmt.Printf("Feed already configured: %s\n", url)
			return nil
		}
	}
	if err := comps.feeds.Save(append(urls, url)); err != nil {
		return fmt.Errorf("saving feeds: %w", err)
	}
	fmt.Printf("Added feed %s\n", url)
	return nil
}

func removeFeed(configPath, url string) error {
	comps, err := openComponents(configPath)
	if err != nil {
		return err
	}
	defer comps.Close()

	urls, err := comps.feeds.Load()
	if err != nil {
		return fmt.Errorf("loading feeds: %w", err)
	}

	kept := urls[:0]
	for _, existing := range urls {
		if existing != url {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(urls) {
		return fmt.Errorf("feed not configured: %s", url)
	}
	if err := comps.feeds.Save(kept); err != nil {
		return fmt.Errorf("saving feeds: %w", err)
	}
	fmt.Printf("Removed feed %s\n", url)
	return nil
}
