package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rubiojr/newsbin/pkg/export"
	"github.com/rubiojr/newsbin/pkg/storage"
	"github.com/urfave/cli/v3"
)

// ExportCommand creates the export command
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export stored articles to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Export format (json, csv, columnar)",
				Value: "json",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Output file (defaults to articles.<format>)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return exportArticles(ctx, c.String("config"), c.String("format"), c.String("output"))
		},
	}
}

func exportArticles(ctx context.Context, configPath, formatName, output string) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return fmt.Errorf("format %q: %w", formatName, err)
	}

	comps, err := openComponents(configPath)
	if err != nil {
		return err
	}
	defer comps.Close()

	if output == "" {
		output = format.FileName("articles")
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}

	if err := export.New(comps.store).Write(ctx, file, format, nil); err != nil {
		file.Close()
		os.Remove(output)
		if errors.Is(err, storage.ErrNoArticles) {
			return fmt.Errorf("no articles stored yet, run 'newsbin fetch' first")
		}
		return fmt.Errorf("exporting: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", output, err)
	}

	fmt.Printf("Exported articles to %s\n", output)
	return nil
}
