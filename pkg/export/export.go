// Package export streams articles out of the store as JSON, CSV, or a
// zstd-compressed columnar format suitable for analytics tooling.
package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/rubiojr/newsbin/pkg/storage"
)

// Format selects the export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatColumnar Format = "columnar"
)

// frameRows is how many rows a columnar frame holds before it is flushed.
const frameRows = 512

var (
	// ErrNoFormat is returned when no format was specified.
	ErrNoFormat = errors.New("no format specified")

	// ErrInvalidFormat is returned for an unknown format name.
	ErrInvalidFormat = errors.New("invalid format requested")
)

var csvHeader = []string{"id", "url", "html", "full_text", "time", "download_time"}

// ParseFormat validates a format name from a request.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "":
		return "", ErrNoFormat
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatCSV):
		return FormatCSV, nil
	case string(FormatColumnar):
		return FormatColumnar, nil
	default:
		return "", ErrInvalidFormat
	}
}

// ContentType returns the MIME type served for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatColumnar:
		return "application/zstd"
	default:
		return "application/octet-stream"
	}
}

// FileName returns the download file name for a format.
func (f Format) FileName(base string) string {
	switch f {
	case FormatColumnar:
		return base + ".columnar.zst"
	default:
		return base + "." + string(f)
	}
}

// Exporter reads articles from the store and writes them in the chosen
// format. Rows stream through without buffering the full result set,
// except for the per-frame buffers of the columnar writer.
type Exporter struct {
	store *storage.Storage
}

func New(store *storage.Storage) *Exporter {
	return &Exporter{store: store}
}

// Write exports the articles with the given ids, or every article when
// ids is empty. Returns storage.ErrNoArticles before any data has been
// fetched.
func (e *Exporter) Write(ctx context.Context, w io.Writer, format Format, ids []int64) error {
	rows, err := e.store.Articles(ctx, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	switch format {
	case FormatJSON:
		err = writeJSON(w, rows)
	case FormatCSV:
		err = writeCSV(w, rows)
	case FormatColumnar:
		err = writeColumnar(w, rows)
	default:
		return ErrInvalidFormat
	}
	if err != nil {
		return err
	}
	return rows.Err()
}

// record mirrors an article row with times rendered as strings, the way
// the search results present them.
type record struct {
	ID           int64  `json:"id"`
	URL          string `json:"url"`
	HTML         string `json:"html"`
	FullText     string `json:"full_text"`
	Time         string `json:"time"`
	DownloadTime string `json:"download_time"`
}

func toRecord(a storage.Article) record {
	return record{
		ID:           a.ID,
		URL:          a.URL,
		HTML:         a.HTML,
		FullText:     a.FullText,
		Time:         formatTime(a.Time),
		DownloadTime: formatTime(a.DownloadTime),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(storage.TimeLayout)
}

func writeJSON(w io.Writer, rows *sql.Rows) error {
	if _, err := io.WriteString(w, "[\n"); err != nil {
		return err
	}
	first := true
	for rows.Next() {
		a, err := storage.ScanArticle(rows)
		if err != nil {
			return err
		}
		if !first {
			if _, err := io.WriteString(w, ",\n"); err != nil {
				return err
			}
		}
		first = false
		data, err := json.MarshalIndent(toRecord(a), "  ", "  ")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  %s", data); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n]\n")
	return err
}

func writeCSV(w io.Writer, rows *sql.Rows) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for rows.Next() {
		a, err := storage.ScanArticle(rows)
		if err != nil {
			return err
		}
		rec := toRecord(a)
		err = cw.Write([]string{
			strconv.FormatInt(rec.ID, 10),
			rec.URL,
			rec.HTML,
			rec.FullText,
			rec.Time,
			rec.DownloadTime,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// columnFrame holds a batch of rows transposed into columns. Frames are
// written as zstd-compressed JSON lines.
type columnFrame struct {
	IDs           []int64  `json:"id"`
	URLs          []string `json:"url"`
	HTMLs         []string `json:"html"`
	FullTexts     []string `json:"full_text"`
	Times         []string `json:"time"`
	DownloadTimes []string `json:"download_time"`
}

func (f *columnFrame) add(rec record) {
	f.IDs = append(f.IDs, rec.ID)
	f.URLs = append(f.URLs, rec.URL)
	f.HTMLs = append(f.HTMLs, rec.HTML)
	f.FullTexts = append(f.FullTexts, rec.FullText)
	f.Times = append(f.Times, rec.Time)
	f.DownloadTimes = append(f.DownloadTimes, rec.DownloadTime)
}

func writeColumnar(w io.Writer, rows *sql.Rows) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(zw)

	frame := &columnFrame{}
	for rows.Next() {
		a, err := storage.ScanArticle(rows)
		if err != nil {
			zw.Close()
			return err
		}
		frame.add(toRecord(a))
		if len(frame.IDs) == frameRows {
			if err := enc.Encode(frame); err != nil {
				zw.Close()
				return err
			}
			frame = &columnFrame{}
		}
	}
	if len(frame.IDs) > 0 {
		if err := enc.Encode(frame); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}
