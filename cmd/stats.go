package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rubiojr/newsbin/pkg/storage"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show article collection statistics",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Usage: "How many rows to show per section (0 for all)",
				Value: 15,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return showStats(ctx, c.String("config"), c.Int("top"))
		},
	}
}

func showStats(ctx context.Context, configPath string, top int) error {
	comps, err := openComponents(configPath)
	if err != nil {
		return err
	}
	defer comps.Close()

	count, err := comps.store.Count()
	if err != nil {
		if errors.Is(err, storage.ErrNoArticles) {
			fmt.Println(noDataStyle.Render("No articles stored yet. Run 'newsbin fetch' first."))
			return nil
		}
		return fmt.Errorf("counting articles: %w", err)
	}

	stats, err := comps.store.GetStats(ctx, nil)
	if err != nil {
		return fmt.Errorf("getting statistics: %w", err)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%d articles stored", count)))

	titler := cases.Title(language.English)
	sections := []struct {
		name   string
		counts []storage.NameCount
	}{
		{"domains", stats.Domains},
		{"subdirectories", stats.Subdirectories},
		{"dates", stats.Dates},
	}

	for _, section := range sections {
		fmt.Println(headerStyle.Render(titler.String(section.name)))
		counts := section.counts
		if top > 0 && len(counts) > top {
			counts = counts[:top]
		}
		for _, nc := range counts {
			fmt.Printf("  %6d  %s\n", nc.Count, nc.Name)
		}
		if len(counts) == 0 {
			fmt.Println(noDataStyle.Render("  (none)"))
		}
	}

	return nil
}
