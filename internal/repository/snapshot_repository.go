package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/village-api/internal/models"
)

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// SnapshotRepository stores whole class snapshots as JSON documents in
// PostgreSQL or SQLite. Saves are last-write-wins per class.
type SnapshotRepository struct {
	db       *sqlx.DB
	observer queryObserver
}

// NewSnapshotRepository constructs the repository. observer may be nil.
func NewSnapshotRepository(db *sqlx.DB, observer queryObserver) *SnapshotRepository {
	return &SnapshotRepository{db: db, observer: observer}
}

type snapshotRow struct {
	ClassID   string `db:"class_id"`
	Payload   []byte `db:"payload"`
	UpdatedAt string `db:"updated_at"`
}

func (r *SnapshotRepository) migrations() []string {
	if r.db.DriverName() == "postgres" {
		return []string{
			`CREATE TABLE IF NOT EXISTS class_snapshots (
				class_id   TEXT PRIMARY KEY,
				payload    JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
		}
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS class_snapshots (
			class_id   TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
}

// Migrate creates the snapshot table when missing.
func (r *SnapshotRepository) Migrate(ctx context.Context) error {
	for _, stmt := range r.migrations() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate class_snapshots: %w", err)
		}
	}
	return nil
}

// Load returns the stored snapshot or nil when the class has none.
func (r *SnapshotRepository) Load(ctx context.Context, classID string) (*models.Snapshot, error) {
	defer r.observe("snapshot_load", time.Now())

	query := r.db.Rebind(`SELECT class_id, payload, updated_at FROM class_snapshots WHERE class_id = ?`)
	var row snapshotRow
	if err := r.db.GetContext(ctx, &row, query, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot %s: %w", classID, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(row.Payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", classID, err)
	}
	return &snap, nil
}

// Save upserts the snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, classID string, snap *models.Snapshot) error {
	defer r.observe("snapshot_save", time.Now())

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", classID, err)
	}
	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`INSERT INTO class_snapshots (class_id, payload, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (class_id)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, classID, string(payload), updatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("save snapshot %s: %w", classID, err)
	}
	return nil
}

// List returns every stored class ordered by id.
func (r *SnapshotRepository) List(ctx context.Context) ([]models.SnapshotInfo, error) {
	defer r.observe("snapshot_list", time.Now())

	var rows []struct {
		ClassID   string `db:"class_id"`
		UpdatedAt string `db:"updated_at"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT class_id, updated_at FROM class_snapshots ORDER BY class_id ASC`); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	infos := make([]models.SnapshotInfo, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339Nano, row.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for %s: %w", row.ClassID, err)
		}
		infos = append(infos, models.SnapshotInfo{ClassID: row.ClassID, UpdatedAt: ts})
	}
	return infos, nil
}

func (r *SnapshotRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}
