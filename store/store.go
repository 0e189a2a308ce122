// Package store - SQLite history of evaluation runs.
package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Run is one evaluated dataset variant.
type Run struct {
	ID      int64  `json:"id"`
	Variant string `json:"variant"`
	Model   string `json:"model"`
	Backend string `json:"backend"`
	Device  string `json:"device"`
	Seed    uint64 `json:"seed"`
	Images  int    `json:"images"`
	// HasMetrics is false for unannotated variants; Average is then 0.
	HasMetrics bool      `json:"has_metrics"`
	Average    float64   `json:"average"`
	Detections int       `json:"detections"`
	FPS        float64   `json:"fps"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunImage is the outcome of one image of a run.
type RunImage struct {
	// Image is the evaluation-order id, "img_1", ...
	Image string `json:"image"`
	// SourceID identifies the dataset sample.
	SourceID   string   `json:"source_id"`
	IoU        *float64 `json:"iou,omitempty"`
	Detections int      `json:"detections"`
}

// Filter narrows Runs.
type Filter struct {
	Variant string
	Limit   int
}

// Store persists runs in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path and migrates its schema.
//
// Arguments:
//   - path: The database file.
//
// Returns:
//   - *Store: The store.
//   - error: Error if the database cannot be opened or migrated.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate database")
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		variant TEXT NOT NULL,
		model TEXT NOT NULL,
		backend TEXT NOT NULL DEFAULT '',
		device TEXT NOT NULL DEFAULT '',
		seed INTEGER NOT NULL DEFAULT 0,
		images INTEGER NOT NULL DEFAULT 0,
		has_metrics INTEGER NOT NULL DEFAULT 0,
		average REAL NOT NULL DEFAULT 0,
		detections INTEGER NOT NULL DEFAULT 0,
		fps REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		image TEXT NOT NULL,
		source_id TEXT NOT NULL DEFAULT '',
		iou REAL,
		detections INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_variant ON runs(variant);
	CREATE INDEX IF NOT EXISTS idx_run_images_run_id ON run_images(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores a run and its images in one transaction.
//
// Arguments:
//   - ctx: The context.
//   - run: The run. CreatedAt defaults to now.
//   - images: The per-image outcomes, in evaluation order.
//
// Returns:
//   - int64: The run id.
//   - error: Error if the insert fails.
func (s *Store) RecordRun(ctx context.Context, run *Run, images []RunImage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (variant, model, backend, device, seed, images, has_metrics, average, detections, fps, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Variant, run.Model, run.Backend, run.Device, int64(run.Seed), run.Images,
		run.HasMetrics, run.Average, run.Detections, run.FPS, run.CreatedAt)
	if err != nil {
		return 0, errors.Wrap(err, "insert run")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "last insert id")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_images (run_id, image, source_id, iou, detections)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, errors.Wrap(err, "prepare image insert")
	}
	defer stmt.Close()

	for _, img := range images {
		var iou sql.NullFloat64
		if img.IoU != nil {
			iou = sql.NullFloat64{Float64: *img.IoU, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, img.Image, img.SourceID, iou, img.Detections); err != nil {
			return 0, errors.Wrapf(err, "insert image %s", img.Image)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit")
	}

	run.ID = id
	return id, nil
}

// Runs lists runs, newest first.
func (s *Store) Runs(ctx context.Context, filter Filter) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, variant, model, backend, device, seed, images, has_metrics, average, detections, fps, created_at
		FROM runs
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Variant != "" {
		query += " AND variant = ?"
		args = append(args, filter.Variant)
	}

	query += " ORDER BY id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var seed int64
		if err := rows.Scan(&r.ID, &r.Variant, &r.Model, &r.Backend, &r.Device, &seed, &r.Images,
			&r.HasMetrics, &r.Average, &r.Detections, &r.FPS, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		r.Seed = uint64(seed)
		runs = append(runs, r)
	}

	return runs, errors.Wrap(rows.Err(), "iterate runs")
}

// Images returns the per-image outcomes of a run in evaluation order.
func (s *Store) Images(ctx context.Context, runID int64) ([]RunImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT image, source_id, iou, detections
		FROM run_images WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "query run images")
	}
	defer rows.Close()

	var images []RunImage
	for rows.Next() {
		var img RunImage
		var iou sql.NullFloat64
		if err := rows.Scan(&img.Image, &img.SourceID, &iou, &img.Detections); err != nil {
			return nil, errors.Wrap(err, "scan run image")
		}
		if iou.Valid {
			v := iou.Float64
			img.IoU = &v
		}
		images = append(images, img)
	}

	return images, errors.Wrap(rows.Err(), "iterate run images")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
