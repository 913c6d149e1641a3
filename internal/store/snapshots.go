package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/philipparndt/gobim/internal/measure"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/ids"
)

// MeasurementSnapshot is a named, persisted set of measurements captured
// from a session. Restoring one replaces the live measurement set.
type MeasurementSnapshot struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Measurements []measure.Measurement `json:"measurements"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// snapshotEntry is the stored form of one measurement. Endpoints are kept
// as coordinate triples so the payload stays stable if the geometry types
// grow fields.
type snapshotEntry struct {
	Mode  string     `json:"mode"`
	Start [3]float64 `json:"start"`
	End   [3]float64 `json:"end"`
}

func encodeMeasurements(measurements []measure.Measurement) (string, error) {
	entries := make([]snapshotEntry, 0, len(measurements))
	for _, m := range measurements {
		entries = append(entries, snapshotEntry{
			Mode:  string(m.Mode),
			Start: [3]float64{m.Start.X, m.Start.Y, m.Start.Z},
			End:   [3]float64{m.End.X, m.End.Y, m.End.Z},
		})
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode measurements: %w", err)
	}
	return string(payload), nil
}

func decodeMeasurements(payload string) ([]measure.Measurement, error) {
	var entries []snapshotEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, fmt.Errorf("decode measurements: %w", err)
	}
	measurements := make([]measure.Measurement, 0, len(entries))
	for _, e := range entries {
		measurements = append(measurements, measure.Measurement{
			Mode:  measure.Mode(e.Mode),
			Start: geometry.NewVector3(e.Start[0], e.Start[1], e.Start[2]),
			End:   geometry.NewVector3(e.End[0], e.End[1], e.End[2]),
		})
	}
	return measurements, nil
}

// SaveSnapshot stores the given measurements under a name and returns the
// snapshot with a generated id
func (r *Repository) SaveSnapshot(ctx context.Context, name string, measurements []measure.Measurement) (*MeasurementSnapshot, error) {
	if name == "" {
		return nil, errors.New("snapshot name must not be empty")
	}
	payload, err := encodeMeasurements(measurements)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &MeasurementSnapshot{
		ID:           ids.New("snapshot"),
		Name:         name,
		Measurements: measurements,
		CreatedAt:    now,
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO measurement_snapshots (id, name, payload, created_at)
        VALUES (?, ?, ?, ?)
    `, s.ID, s.Name, payload, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return s, nil
}

// GetSnapshot loads one snapshot by id
func (r *Repository) GetSnapshot(ctx context.Context, id string) (*MeasurementSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, payload, created_at
        FROM measurement_snapshots
        WHERE id = ?
    `, id)
	return scanSnapshot(row)
}

// ListSnapshots returns all snapshots ordered by creation time
func (r *Repository) ListSnapshots(ctx context.Context) ([]*MeasurementSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, payload, created_at
        FROM measurement_snapshots
        ORDER BY created_at, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*MeasurementSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// DeleteSnapshot removes a snapshot; deleting an unknown id returns
// ErrNotFound
func (r *Repository) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM measurement_snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
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

func scanSnapshot(row scannable) (*MeasurementSnapshot, error) {
	var s MeasurementSnapshot
	var payload, createdAt string
	if err := row.Scan(&s.ID, &s.Name, &payload, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	measurements, err := decodeMeasurements(payload)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.ID, err)
	}
	s.Measurements = measurements

	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.ID, err)
	}
	return &s, nil
}
