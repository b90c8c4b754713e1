package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/newsbin/pkg/search"
	"github.com/rubiojr/newsbin/pkg/storage"
	"github.com/urfave/cli/v3"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Margin(1, 0, 1, 0)

	articleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1).
			Margin(0, 0, 1, 2)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

const snippetLength = 300

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search stored articles",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "text",
				Usage: "Match against extracted article text",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Match against article URLs",
			},
			&cli.StringFlag{
				Name:  "html",
				Usage: "Match against raw article HTML",
			},
			&cli.StringFlag{
				Name:  "start-date",
				Usage: "Earliest publication date (e.g. 2024, 2024-03, 2024-03-01)",
			},
			&cli.StringFlag{
				Name:  "end-date",
				Usage: "Latest publication date",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "per-page",
				Usage: "Results per page",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "sort-by",
				Usage: "Sort column (time, url, full_text)",
				Value: "time",
			},
			&cli.StringFlag{
				Name:  "sort-order",
				Usage: "Sort order (asc, desc)",
				Value: "desc",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			params := search.SearchParams{
				GeneralQuery: strings.Join(c.Args().Slice(), " "),
				TextQuery:    c.String("text"),
				URLQuery:     c.String("url"),
				HTMLQuery:    c.String("html"),
				StartTime:    c.String("start-date"),
				EndTime:      c.String("end-date"),
				Page:         c.Int("page"),
				PerPage:      c.Int("per-page"),
				SortBy:       c.String("sort-by"),
				SortOrder:    c.String("sort-order"),
			}
			return searchArticles(ctx, c.String("config"), params)
		},
	}
}

func searchArticles(ctx context.Context, configPath string, params search.SearchParams) error {
	comps, err := openComponents(configPath)
	if err != nil {
		return err
	}
	defer comps.Close()

	service := search.NewService(comps.store)
	results, err := service.Search(ctx, params)
	if err != nil {
		if errors.Is(err, storage.ErrNoArticles) {
			fmt.Println(noDataStyle.Render("No articles stored yet. Run 'newsbin fetch' first."))
			return nil
		}
		return fmt.Errorf("searching: %w", err)
	}

	if results.TotalCount == 0 {
		fmt.Println(noDataStyle.Render("No articles matched."))
		return nil
	}

	title := fmt.Sprintf("%d articles matched (page %d, %d per page)",
		results.TotalCount, results.Page, results.PerPage)
	fmt.Println(titleStyle.Render(title))

	for _, row := range results.Rows {
		var b strings.Builder
		if row.Time != "" {
			b.WriteString(metaStyle.Render(row.Time))
			b.WriteString("\n")
		}
		b.WriteString(urlStyle.Render(row.URL))
		if snippet := snippet(row.FullText); snippet != "" {
			b.WriteString("\n\n")
			b.WriteString(snippet)
		}
		fmt.Println(articleStyle.Render(b.String()))
	}

	return nil
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > snippetLength {
		text = text[:snippetLength] + "…"
	}
	return text
}
