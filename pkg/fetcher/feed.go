package fetcher

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"
)

// RSS 2.0 feed structures
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// Atom feed structures
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string   `xml:"title"`
	Link    atomLink `xml:"link"`
	Summary string   `xml:"summary"`
	Content string   `xml:"content"`
	ID      string   `xml:"id"`
	Updated string   `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

// Item is a feed entry in a format common to RSS and Atom.
type Item struct {
	Title       string
	Link        string
	Description string
	Published   time.Time
}

// feedDateFormats are the publish date layouts seen in the wild, tried in
// order.
var feedDateFormats = []string{
	time.RFC1123Z, // RSS standard
	time.RFC1123,  // RSS without timezone
	time.RFC3339,  // Atom standard
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"Mon, 02 Jan 2006 15:04:05 -0700",
}

// downloadFeed fetches and parses one feed, trying RSS 2.0 first and
// falling back to Atom.
func (f *Fetcher) downloadFeed(ctx context.Context, feedURL string) ([]Item, error) {
	body, err := f.get(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	return parseFeed(body)
}

func parseFeed(body string) ([]Item, error) {
	var rss rssFeed
	if err := xml.NewDecoder(strings.NewReader(body)).Decode(&rss); err == nil && len(rss.Channel.Items) > 0 {
		items := make([]Item, len(rss.Channel.Items))
		for i, item := range rss.Channel.Items {
			items[i] = Item{
				Title:       item.Title,
				Link:        item.Link,
				Description: cleanDescription(item.Description),
				Published:   parseFeedDate(item.PubDate),
			}
		}
		return items, nil
	}

	var atom atomFeed
	if err := xml.NewDecoder(strings.NewReader(body)).Decode(&atom); err != nil {
		return nil, fmt.Errorf("parsing as RSS or Atom: %w", err)
	}
	items := make([]Item, len(atom.Entries))
	for i, entry := range atom.Entries {
		description := entry.Summary
		if len(entry.Content) > len(description) {
			description = entry.Content
		}
		items[i] = Item{
			Title:       entry.Title,
			Link:        entry.Link.Href,
			Description: cleanDescription(description),
			Published:   parseFeedDate(entry.Updated),
		}
	}
	return items, nil
}

func parseFeedDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, format := range feedDateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// cleanDescription decodes HTML entities and strips tags so the fallback
// text is searchable.
func cleanDescription(description string) string {
	description = html.UnescapeString(description)
	for {
		start := strings.Index(description, "<")
		if start == -1 {
			break
		}
		end := strings.Index(description[start:], ">")
		if end == -1 {
			break
		}
		description = description[:start] + " " + description[start+end+1:]
	}
	return strings.Join(strings.Fields(description), " ")
}
