// ABOUTME: SQLite database connection and lifecycle management.
// ABOUTME: Uses modernc.org/sqlite (pure Go, no CGO required) behind sqlx and squirrel.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed width so stored timestamps sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000Z"

// dbtx is the query surface shared by *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// DB wraps the SQLite database connection. Inside WithTx, db is the open
// transaction and conn the pool it came from.
type DB struct {
	conn   *sqlx.DB
	db     dbtx
	dbPath string
	sb     sq.StatementBuilderType
}

var _ Repository = (*DB)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer; one connection keeps pragmas consistent too.
	db.SetMaxOpenConns(1)

	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		_ = db.Close()
		return nil, fmt.Errorf("set database permissions: %w", err)
	}

	d := &DB{
		conn:   db,
		db:     db,
		dbPath: dbPath,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}

	if err := d.configurePragmas(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure pragmas: %w", err)
	}

	if err := d.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return d, nil
}

// OpenDefault opens the database at the default XDG data path.
func OpenDefault() (*DB, error) {
	return Open(DefaultDBPath())
}

// DataDir returns the default data directory following XDG spec.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "caltra")
}

// DefaultDBPath returns the default database path following XDG spec.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "caltra.db")
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// WithTx runs fn against a copy of d bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (d *DB) WithTx(ctx context.Context, fn func(Repository) error) error {
	if _, ok := d.db.(*sqlx.Tx); ok {
		return fn(d)
	}

	tx, err := d.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&DB{conn: d.conn, db: tx, dbPath: d.dbPath, sb: d.sb}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (d *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := d.conn.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by hand or by older builds may carry plain RFC3339.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		// Primary result code lives in the low byte of extended codes.
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// resolveID resolves a full UUID or unique prefix against table for userID.
func (d *DB) resolveID(ctx context.Context, table, userID, idOrPrefix string) (uuid.UUID, error) {
	idOrPrefix = strings.ToLower(strings.TrimSpace(idOrPrefix))
	if id, err := uuid.Parse(idOrPrefix); err == nil {
		return id, nil
	}
	if idOrPrefix == "" || strings.Trim(idOrPrefix, "0123456789abcdef-") != "" {
		return uuid.Nil, ErrNotFound
	}

	query, args, err := d.sb.Select("id").From(table).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Like{"id": idOrPrefix + "%"}).
		Limit(2).
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("build query: %w", err)
	}

	var ids []string
	if err := d.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return uuid.Nil, fmt.Errorf("resolve id: %w", err)
	}
	switch len(ids) {
	case 0:
		return uuid.Nil, ErrNotFound
	case 1:
		return uuid.Parse(ids[0])
	default:
		return uuid.Nil, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
	}
}
