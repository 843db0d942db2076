package db

import (
	"context"
	"database/sql"
	"time"

	"pasty/pkg/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
	defaultQueryTimeout = 5 * time.Second
)

type SQLite struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewSQLite(path string) (*SQLite, error) {
	return NewSQLiteWithConfig(path, defaultMaxOpenConns, defaultMaxIdleConns, defaultQueryTimeout)
}

func NewSQLiteWithConfig(path string, maxOpenConns, maxIdleConns int, queryTimeout time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open db")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping db")
	}
	s := &SQLite{
		db:           db,
		queryTimeout: queryTimeout,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migration failed")
	}
	return s, nil
}

// author_id is deliberately left unindexed; a scan is fine at this scale.
func (s *SQLite) migrate() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return errors.Wrap(err, "enable WAL mode")
	}
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return errors.Wrap(err, "set busy timeout")
	}
	if _, err := s.db.Exec("PRAGMA synchronous=FULL"); err != nil {
		return errors.Wrap(err, "set synchronous mode")
	}
	query := `
	CREATE TABLE IF NOT EXISTS pastes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		author_id TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}
func (s *SQLite) Insert(ctx context.Context, p domain.CreateParams) (string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	id := NewID()
	q := `INSERT INTO pastes (id, title, content, author_id) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(queryCtx, q, id, p.Title, p.Content, p.AuthorID); err != nil {
		return "", errors.Wrap(err, "db insert")
	}
	return id, nil
}
func (s *SQLite) FindByID(ctx context.Context, id string) (*domain.Paste, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `SELECT id, title, content, author_id FROM pastes WHERE id = ?`
	var p domain.Paste
	err := s.db.QueryRowContext(queryCtx, q, id).Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPasteNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "db find by id")
	}
	return &p, nil
}
func (s *SQLite) FindByAuthor(ctx context.Context, authorID string) ([]domain.Paste, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `SELECT id, title, content, author_id FROM pastes WHERE author_id = ?`
	rows, err := s.db.QueryContext(queryCtx, q, authorID)
	if err != nil {
		return nil, errors.Wrap(err, "db find by author")
	}
	defer rows.Close()
	pastes := []domain.Paste{}
	for rows.Next() {
		var p domain.Paste
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID); err != nil {
			return nil, errors.Wrap(err, "scan paste")
		}
		pastes = append(pastes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate pastes")
	}
	return pastes, nil
}
func (s *SQLite) Ping(ctx context.Context) error {
	var result int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
}
func (s *SQLite) Close() error {
	return s.db.Close()
}
