package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/rubiojr/newsbin/pkg/storage"
)

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "articles.db"))
	if err != nil {
		t.Fatalf("opening storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedStore(t *testing.T, store *storage.Storage) {
	t.Helper()
	if err := store.InitSchema(); err != nil {
		t.Fatalf("initializing schema: %v", err)
	}
	articles := []storage.Article{
		{
			URL:          "https://news.example.com/a",
			HTML:         "<p>Alpha</p>",
			FullText:     "Alpha body",
			Time:         time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC),
			DownloadTime: time.Date(2021, 3, 1, 12, 5, 0, 0, time.UTC),
		},
		{
			URL:          "https://news.example.com/b",
			HTML:         "<p>Beta, \"quoted\"</p>",
			FullText:     "Beta body",
			Time:         time.Date(2021, 3, 2, 12, 0, 0, 0, time.UTC),
			DownloadTime: time.Date(2021, 3, 2, 12, 5, 0, 0, time.UTC),
		},
		{
			URL:          "https://blog.example.org/c",
			HTML:         "<p>Gamma</p>",
			FullText:     "Gamma body",
			Time:         time.Date(2021, 4, 1, 9, 0, 0, 0, time.UTC),
			DownloadTime: time.Date(2021, 4, 1, 9, 5, 0, 0, time.UTC),
		},
	}
	if _, err := store.SaveArticles(articles); err != nil {
		t.Fatalf("seeding articles: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr error
	}{
		{"json", FormatJSON, nil},
		{"csv", FormatCSV, nil},
		{"columnar", FormatColumnar, nil},
		{"", "", ErrNoFormat},
		{"parquet", "", ErrInvalidFormat},
		{"JSON", "", ErrInvalidFormat},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ParseFormat(%q) error = %v, want %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFileNames(t *testing.T) {
	if got := FormatJSON.FileName("articles"); got != "articles.json" {
		t.Errorf("json file name = %q", got)
	}
	if got := FormatCSV.FileName("articles_query"); got != "articles_query.csv" {
		t.Errorf("csv file name = %q", got)
	}
	if got := FormatColumnar.FileName("articles"); got != "articles.columnar.zst" {
		t.Errorf("columnar file name = %q", got)
	}
}

func TestWriteBeforeFetch(t *testing.T) {
	store := newTestStore(t)
	e := New(store)

	var buf bytes.Buffer
	err := e.Write(context.Background(), &buf, FormatJSON, nil)
	if !errors.Is(err, storage.ErrNoArticles) {
		t.Fatalf("got %v, want ErrNoArticles", err)
	}
}

func TestWriteJSON(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	e := New(store)

	var buf bytes.Buffer
	if err := e.Write(context.Background(), &buf, FormatJSON, nil); err != nil {
		t.Fatalf("export: %v", err)
	}

	var records []record
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].URL != "https://news.example.com/a" {
		t.Errorf("first url = %q", records[0].URL)
	}
	if records[0].Time != "2021-03-01 12:00:00" {
		t.Errorf("first time = %q", records[0].Time)
	}
}

func TestWriteJSONSubset(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	e := New(store)

	var buf bytes.Buffer
	if err := e.Write(context.Background(), &buf, FormatJSON, []int64{1, 3}); err != nil {
		t.Fatalf("export: %v", err)
	}

	var records []record
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[1].URL != "https://blog.example.org/c" {
		t.Errorf("second url = %q", records[1].URL)
	}
}

func TestWriteCSV(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	e := New(store)

	var buf bytes.Buffer
	if err := e.Write(context.Background(), &buf, FormatCSV, nil); err != nil {
		t.Fatalf("export: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header plus 3", len(rows))
	}
	if strings.Join(rows[0], ",") != "id,url,html,full_text,time,download_time" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[2][2] != "<p>Beta, \"quoted\"</p>" {
		t.Errorf("quoted html survived as %q", rows[2][2])
	}
}

func TestWriteColumnar(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	e := New(store)

	var buf bytes.Buffer
	if err := e.Write(context.Background(), &buf, FormatColumnar, nil); err != nil {
		t.Fatalf("export: %v", err)
	}

	zr, err := zstd.NewReader(&buf)
	if err != nil {
		t.Fatalf("opening zstd stream: %v", err)
	}
	defer zr.Close()

	dec := json.NewDecoder(zr)
	var frame columnFrame
	if err := dec.Decode(&frame); err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	if len(frame.IDs) != 3 {
		t.Fatalf("frame holds %d rows, want 3", len(frame.IDs))
	}
	if frame.URLs[2] != "https://blog.example.org/c" {
		t.Errorf("third url = %q", frame.URLs[2])
	}
	if frame.Times[0] != "2021-03-01 12:00:00" {
		t.Errorf("first time = %q", frame.Times[0])
	}
	if dec.More() {
		t.Error("expected a single frame for 3 rows")
	}
}
