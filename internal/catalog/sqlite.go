package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/lepinkainen/alexandria/internal/book"
)

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	position INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	authors TEXT,
	description TEXT,
	genres TEXT,
	year INTEGER,
	language TEXT,
	rating REAL,
	ratings_count INTEGER,
	isbn TEXT,
	pages INTEGER,
	cover_url TEXT,
	preview_link TEXT,
	extracted_characters TEXT,
	extracted_settings TEXT
);
CREATE INDEX IF NOT EXISTS idx_records_isbn ON records(isbn);
`

// SQLiteStore keeps the corpus in a local SQLite database. The rowid-style
// position column preserves import order so score ties stay deterministic.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) a corpus database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus database: %w", err)
	}
	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to corpus database: %w", err), closeErr)
	}
	if _, err := db.Exec(recordsSchema); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to create records table: %w", err), closeErr)
	}
	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Import inserts records in batch inside a single transaction, replacing any
// existing rows with the same identifier.
func (s *SQLiteStore) Import(ctx context.Context, records []book.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO records (
			id, title, authors, description, genres, year, language,
			rating, ratings_count, isbn, pages, cover_url, preview_link,
			extracted_characters, extracted_settings
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		authors, err := json.Marshal(rec.Authors)
		if err != nil {
			return fmt.Errorf("failed to encode authors for %s: %w", rec.ID, err)
		}
		genres, err := json.Marshal(rec.Genres)
		if err != nil {
			return fmt.Errorf("failed to encode genres for %s: %w", rec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.Title, string(authors), rec.Description, string(genres),
			rec.Year, rec.Language, rec.Rating, rec.RatingsCount, rec.ISBN,
			rec.Pages, rec.CoverURL, rec.PreviewLink, rec.Characters, rec.Settings,
		); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

const recordColumns = `id, title, authors, description, genres, year, language,
	rating, ratings_count, isbn, pages, cover_url, preview_link,
	extracted_characters, extracted_settings`

// GetRecord fetches a record by identifier.
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (book.Record, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM records WHERE id = ?", recordColumns), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Record{}, fmt.Errorf("%w: id %q", book.ErrNotFound, id)
	}
	if err != nil {
		return book.Record{}, fmt.Errorf("failed to query record: %w", err)
	}
	return rec, nil
}

// All returns the corpus in import order.
func (s *SQLiteStore) All(ctx context.Context) ([]book.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM records ORDER BY position", recordColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []book.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (book.Record, error) {
	var rec book.Record
	var authors, genres string
	if err := row.Scan(
		&rec.ID, &rec.Title, &authors, &rec.Description, &genres,
		&rec.Year, &rec.Language, &rec.Rating, &rec.RatingsCount, &rec.ISBN,
		&rec.Pages, &rec.CoverURL, &rec.PreviewLink, &rec.Characters, &rec.Settings,
	); err != nil {
		return book.Record{}, err
	}
	if authors != "" {
		if err := json.Unmarshal([]byte(authors), &rec.Authors); err != nil {
			return book.Record{}, fmt.Errorf("failed to decode authors: %w", err)
		}
	}
	if genres != "" {
		if err := json.Unmarshal([]byte(genres), &rec.Genres); err != nil {
			return book.Record{}, fmt.Errorf("failed to decode genres: %w", err)
		}
	}
	return rec, nil
}
