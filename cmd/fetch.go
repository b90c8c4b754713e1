package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// FetchCommand creates the fetch command
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch all configured feeds once",
		Action: func(ctx context.Context, c *cli.Command) error {
			return fetchOnce(ctx, c.String("config"))
		},
	}
}

func fetchOnce(ctx context.Context, configPath string) error {
	comps, err := openComponents(configPath)
	if err != nil {
		return err
	}
	defer comps.Close()

	stored, err := comps.fetcher.Run(ctx)
	if err != nil {
		return fmt.Errorf("fetching feeds: %w", err)
	}

	fmt.Printf("Stored %d new articles\n", stored)
	return nil
}
