package dedupe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bakkerme/boatwatch/internal/core"
	_ "modernc.org/sqlite"
)

const (
	defaultSQLiteTable = "listings"
	lastCheckKey       = "last_check"
	timeLayout         = "2006-01-02T15:04:05.999999999Z07:00"
)

// SQLiteStore persists state in two tables: one row per known listing, and a
// key/value table for the last check time. Rows are insert-only.
type SQLiteStore struct {
	db         *sql.DB
	dsn        string
	table      string
	tableIdent string
	metaIdent  string
}

func NewSQLiteStore(dsn string, table string) (*SQLiteStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}
	if table == "" {
		table = defaultSQLiteTable
	}
	tableIdent, err := quoteSQLiteIdentifier(table)
	if err != nil {
		return nil, err
	}
	metaIdent, err := quoteSQLiteIdentifier(table + "_meta")
	if err != nil {
		return nil, err
	}
	if err := ensureSQLiteDir(dsn); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{
		db:         db,
		dsn:        dsn,
		table:      table,
		tableIdent: tableIdent,
		metaIdent:  metaIdent,
	}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (State, error) {
	state := emptyState()
	found := false

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id, payload FROM %s", s.tableIdent))
	if err != nil {
		return State{}, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return State{}, fmt.Errorf("scan listing: %w", err)
		}
		var listing core.Listing
		if err := json.Unmarshal([]byte(payload), &listing); err != nil {
			return State{}, fmt.Errorf("decode listing %s: %w", id, err)
		}
		state.Listings[id] = listing
		found = true
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("iterate listings: %w", err)
	}

	var lastCheck string
	err = s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE key = ?", s.metaIdent), lastCheckKey).Scan(&lastCheck)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return State{}, fmt.Errorf("query last check: %w", err)
	default:
		ts, err := core.ParseTimestamp(lastCheck)
		if err != nil {
			return State{}, err
		}
		state.LastCheck = ts
		found = true
	}

	if !found {
		return State{}, ErrNotFound
	}
	return state, nil
}

func (s *SQLiteStore) Save(ctx context.Context, state State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(
		ctx,
		fmt.Sprintf("INSERT INTO %s (id, payload, first_seen_at) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING", s.tableIdent),
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for id, listing := range state.Listings {
		if id == "" {
			continue
		}
		payload, err := json.Marshal(listing)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode listing %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(payload), listing.FoundAt.UTC()); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if !state.LastCheck.IsZero() {
		_, err := tx.ExecContext(
			ctx,
			fmt.Sprintf("INSERT INTO %s (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", s.metaIdent),
			lastCheckKey,
			state.LastCheck.UTC().Format(timeLayout),
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Location() string {
	return s.dsn
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	if s.table == "" {
		return fmt.Errorf("sqlite table name is required")
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		first_seen_at TIMESTAMP NOT NULL
	)`, s.tableIdent)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sqlite table: %w", err)
	}
	meta := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`, s.metaIdent)
	if _, err := s.db.ExecContext(ctx, meta); err != nil {
		return fmt.Errorf("create sqlite meta table: %w", err)
	}
	return nil
}

func ensureSQLiteDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") {
		dsn = strings.TrimPrefix(dsn, "file:")
		if idx := strings.IndexRune(dsn, '?'); idx >= 0 {
			dsn = dsn[:idx]
		}
	}
	if dsn == "" || dsn == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

var sqliteIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func quoteSQLiteIdentifier(identifier string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("sqlite table name is required")
	}
	if !sqliteIdentifierPattern.MatchString(identifier) {
		return "", fmt.Errorf("sqlite table name %q must match %s", identifier, sqliteIdentifierPattern.String())
	}
	return `"` + identifier + `"`, nil
}
