package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shekified/life-tracker/internal/model"

	// SQLite driver
	_ "modernc.org/sqlite"
)

// DefaultSQLiteName is the database file inside the data directory.
const DefaultSQLiteName = "blocks.db"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshot (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	version    INTEGER NOT NULL,
	body       TEXT    NOT NULL,
	updated_at TEXT    NOT NULL
)`

// SQLiteRepo keeps the snapshot text in a single-row table.
type SQLiteRepo struct {
	db   *sql.DB
	path string
}

// OpenSQLiteRepo opens or creates the database and applies the schema.
func OpenSQLiteRepo(ctx context.Context, dataDir, fileName string) (*SQLiteRepo, error) {
	if fileName == "" {
		fileName = DefaultSQLiteName
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dataDir, fileName)

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One session, one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteRepo{db: db, path: path}, nil
}

func (r *SQLiteRepo) Path() string { return r.path }

func (r *SQLiteRepo) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepo) Load(ctx context.Context) ([]model.Block, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM snapshot WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Block{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Decode([]byte(body))
}

func (r *SQLiteRepo) Save(ctx context.Context, blocks []model.Block) error {
	b, err := Encode(blocks)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshot (id, version, body, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		FormatVersion, string(b), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// writeRaw replaces the stored body verbatim. Used by tests to simulate corruption.
func (r *SQLiteRepo) writeRaw(ctx context.Context, body string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshot (id, version, body, updated_at) VALUES (1, ?, ?, '')
		ON CONFLICT(id) DO UPDATE SET body = excluded.body`, FormatVersion, body)
	return err
}
