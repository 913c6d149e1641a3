// Package store persists named filter presets and measurement snapshots in
// a local sqlite database
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/philipparndt/gobim/internal/filter"
	"github.com/philipparndt/gobim/pkg/ids"
)

// ErrNotFound is returned when no record has the requested id
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS filter_presets (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    payload    TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS measurement_snapshots (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    payload    TEXT NOT NULL,
    created_at TEXT NOT NULL
);
`

// Preset is a named, persisted filter configuration
type Preset struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Filter    filter.Filter `json:"filter"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init applies the schema
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Save stores a new preset and returns it with a generated id
func (r *Repository) Save(ctx context.Context, name string, f filter.Filter) (*Preset, error) {
	if name == "" {
		return nil, errors.New("preset name must not be empty")
	}
	payload, err := f.Export()
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}

	now := time.Now().UTC()
	p := &Preset{
		ID:        ids.New("preset"),
		Name:      name,
		Filter:    f,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO filter_presets (id, name, payload, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
    `, p.ID, p.Name, string(payload), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert preset: %w", err)
	}
	return p, nil
}

// Update replaces the name and filter of an existing preset
func (r *Repository) Update(ctx context.Context, id, name string, f filter.Filter) error {
	payload, err := f.Export()
	if err != nil {
		return fmt.Errorf("encode filter: %w", err)
	}
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
        UPDATE filter_presets SET name = ?, payload = ?, updated_at = ?
        WHERE id = ?
    `, name, string(payload), now.Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("update preset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads one preset by id
func (r *Repository) Get(ctx context.Context, id string) (*Preset, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, payload, created_at, updated_at
        FROM filter_presets
        WHERE id = ?
    `, id)
	return scanPreset(row)
}

// List returns all presets ordered by creation time
func (r *Repository) List(ctx context.Context) ([]*Preset, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, payload, created_at, updated_at
        FROM filter_presets
        ORDER BY created_at, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

// Delete removes a preset; deleting an unknown id returns ErrNotFound
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM filter_presets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPreset(row scannable) (*Preset, error) {
	var p Preset
	var payload, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &payload, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	f, err := filter.Import([]byte(payload), filter.Default())
	if err != nil {
		return nil, fmt.Errorf("decode preset %s: %w", p.ID, err)
	}
	p.Filter = f

	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode preset %s: %w", p.ID, err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("decode preset %s: %w", p.ID, err)
	}
	return &p, nil
}

// Open opens the sqlite database at the given path, creating parent
// directories as needed.
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
