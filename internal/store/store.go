// Package store persists memory-stream snapshots to SQLite, giving hosts a
// durable save/restore surface beyond the JSON export. One table holds the
// full record list; embeddings are stored as binary blobs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mazemind/mazemind/internal/encoding"
	"github.com/mazemind/mazemind/pkg/memory"
	"github.com/mazemind/mazemind/pkg/world"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id            TEXT PRIMARY KEY,
	description   TEXT NOT NULL,
	kind          TEXT NOT NULL,
	importance    INTEGER NOT NULL,
	tags          TEXT,
	loc_x         INTEGER,
	loc_y         INTEGER,
	embedding     BLOB,
	created_at    TEXT NOT NULL,
	last_accessed TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_kind ON memories(kind);
`

// Archive is a SQLite-backed snapshot store for one character's memories.
type Archive struct {
	db *sql.DB
}

// Open opens (or creates) the archive at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &Archive{db: db}, nil
}

// Init creates the schema.
func (a *Archive) Init(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: init: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (a *Archive) Close() error { return a.db.Close() }

// Save replaces the archived snapshot with the stream's current records.
func (a *Archive) Save(ctx context.Context, s *memory.Stream) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories`); err != nil {
		return fmt.Errorf("store: save: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO memories (id, description, kind, importance, tags, loc_x, loc_y, embedding, created_at, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	defer stmt.Close()

	for _, rec := range s.GetAll() {
		tagsJSON, err := json.Marshal(rec.Tags)
		if err != nil {
			return fmt.Errorf("store: save %s: %w", rec.ID, err)
		}

		var locX, locY any
		if rec.Location != nil {
			locX, locY = rec.Location.X, rec.Location.Y
		}

		var blob []byte
		if len(rec.Embedding) > 0 {
			if blob, err = encoding.EncodeVector(rec.Embedding); err != nil {
				return fmt.Errorf("store: save %s: %w", rec.ID, err)
			}
		}

		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.Description, string(rec.Kind), rec.Importance, string(tagsJSON),
			locX, locY, blob,
			rec.CreatedAt.UTC().Format(time.RFC3339Nano),
			rec.LastAccessed.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("store: save %s: %w", rec.ID, err)
		}
	}
	return tx.Commit()
}

// Load reads the archived records in creation order.
func (a *Archive) Load(ctx context.Context) ([]*memory.Record, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, description, kind, importance, tags, loc_x, loc_y, embedding, created_at, last_accessed
		FROM memories ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	defer rows.Close()

	var records []*memory.Record
	for rows.Next() {
		var (
			rec       memory.Record
			kind      string
			tagsJSON  sql.NullString
			locX      sql.NullInt64
			locY      sql.NullInt64
			blob      []byte
			createdAt string
			accessed  string
		)
		if err := rows.Scan(&rec.ID, &rec.Description, &kind, &rec.Importance,
			&tagsJSON, &locX, &locY, &blob, &createdAt, &accessed); err != nil {
			return nil, fmt.Errorf("store: load: %w", err)
		}
		rec.Kind = memory.Kind(kind)

		if tagsJSON.Valid && strings.TrimSpace(tagsJSON.String) != "" {
			if err := json.Unmarshal([]byte(tagsJSON.String), &rec.Tags); err != nil {
				return nil, fmt.Errorf("store: load %s: %w", rec.ID, err)
			}
		}
		if locX.Valid && locY.Valid {
			rec.Location = &world.Point{X: int(locX.Int64), Y: int(locY.Int64)}
		}
		if len(blob) > 0 {
			if rec.Embedding, err = encoding.DecodeVector(blob); err != nil {
				return nil, fmt.Errorf("store: load %s: %w", rec.ID, err)
			}
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("store: load %s: %w", rec.ID, err)
		}
		if rec.LastAccessed, err = time.Parse(time.RFC3339Nano, accessed); err != nil {
			return nil, fmt.Errorf("store: load %s: %w", rec.ID, err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
