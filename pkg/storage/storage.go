package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// TimeLayout is the storage format for article timestamps. Times are kept as
// TEXT so that range comparisons and CAST(time AS TEXT) matching behave the
// same way in every query.
const TimeLayout = "2006-01-02 15:04:05"

// ErrNoArticles signals that the articles table does not exist yet, i.e.
// nothing has been fetched. Callers should treat this as "no data yet"
// rather than a storage fault.
var ErrNoArticles = errors.New("no articles found, fetch articles first")

// Article is a single stored article row.
type Article struct {
	ID           int64
	URL          string
	HTML         string
	FullText     string
	Time         time.Time // publication time, zero when the feed had none
	DownloadTime time.Time
}

type Storage struct {
	db *sql.DB
}

func Open(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Apply performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// InitSchema creates the articles table. It is called by the ingestion path,
// not by Open, so that a store that has never fetched reports ErrNoArticles.
func (s *Storage) InitSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL,
			html TEXT,
			full_text TEXT,
			time DATETIME,
			download_time DATETIME NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_url ON articles(url);
		CREATE INDEX IF NOT EXISTS idx_articles_time ON articles(time);
	`)
	if err != nil {
		return fmt.Errorf("creating articles schema: %w", err)
	}
	return nil
}

// TableExists reports whether the articles table has been created.
func (s *Storage) TableExists() (bool, error) {
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'articles'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking articles table: %w", err)
	}
	return true, nil
}

// CheckReady returns ErrNoArticles when the articles table is missing. Every
// read path calls this before executing queries.
func (s *Storage) CheckReady() error {
	exists, err := s.TableExists()
	if err != nil {
		return err
	}
	if !exists {
		return ErrNoArticles
	}
	return nil
}

// SaveArticles stores articles in a single transaction, skipping URLs that
// are already present. Returns the number of newly inserted rows.
func (s *Storage) SaveArticles(articles []Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO articles (url, html, full_text, time, download_time)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	inserted := 0
	for _, a := range articles {
		var pubTime any
		if !a.Time.IsZero() {
			pubTime = a.Time.UTC().Format(TimeLayout)
		}
		res, err := stmt.Exec(
			a.URL,
			a.HTML,
			a.FullText,
			pubTime,
			a.DownloadTime.UTC().Format(TimeLayout),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting article %s: %w", a.URL, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	err = tx.Commit()
	if err == nil {
		committed = true
	}
	return inserted, err
}

// HasURL reports whether an article with the given URL is already stored.
func (s *Storage) HasURL(url string) (bool, error) {
	if err := s.CheckReady(); err != nil {
		if errors.Is(err, ErrNoArticles) {
			return false, nil
		}
		return false, err
	}
	var one int
	err := s.db.QueryRow("SELECT 1 FROM articles WHERE url = ?", url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking article url: %w", err)
	}
	return true, nil
}

// Count returns the total number of stored articles.
func (s *Storage) Count() (int, error) {
	if err := s.CheckReady(); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return count, nil
}

// idListClause renders an id restriction for queries that only look at a
// previous search's matches. The ids come from our own queries, never from
// user input.
func idListClause(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return " WHERE id IN (" + strings.Join(parts, ",") + ")"
}

// Articles returns full article rows, restricted to ids when non-empty,
// ordered by id. Used by the export path.
func (s *Storage) Articles(ctx context.Context, ids []int64) (*sql.Rows, error) {
	if err := s.CheckReady(); err != nil {
		return nil, err
	}
	query := "SELECT id, url, html, full_text, time, download_time FROM articles" +
		idListClause(ids) + " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	return rows, nil
}

// ScanArticle reads one row produced by Articles.
func ScanArticle(rows *sql.Rows) (Article, error) {
	var (
		a            Article
		html         sql.NullString
		fullText     sql.NullString
		pubTime      sql.NullString
		downloadTime sql.NullString
	)
	if err := rows.Scan(&a.ID, &a.URL, &html, &fullText, &pubTime, &downloadTime); err != nil {
		return Article{}, fmt.Errorf("scanning article row: %w", err)
	}
	a.HTML = html.String
	a.FullText = fullText.String
	if pubTime.Valid {
		if t, err := time.Parse(TimeLayout, pubTime.String); err == nil {
			a.Time = t
		}
	}
	if downloadTime.Valid {
		if t, err := time.Parse(TimeLayout, downloadTime.String); err == nil {
			a.DownloadTime = t
		}
	}
	return a, nil
}

// FullTexts returns the full_text column, restricted to ids when non-empty.
func (s *Storage) FullTexts(ctx context.Context, ids []int64) ([]string, error) {
	if err := s.CheckReady(); err != nil {
		return nil, err
	}
	query := "SELECT full_text FROM articles" + idListClause(ids)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying full texts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var texts []string
	for rows.Next() {
		var text sql.NullString
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scanning full text: %w", err)
		}
		texts = append(texts, text.String)
	}
	return texts, rows.Err()
}

func (s *Storage) Optimize() error {
	_, err := s.db.Exec("PRAGMA optimize")
	return err
}

func (s *Storage) WALCheckpoint() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}
