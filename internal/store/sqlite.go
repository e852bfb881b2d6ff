// Package store keeps predictions from every run in a SQLite database so
// runs can be compared and re-mapped without re-reading answer files.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/litscreen/internal/model"
)

// Store persists predictions
type Store interface {
	Save(ctx context.Context, p *model.Prediction) error
	SetLabel(ctx context.Context, answerCol string, fold int, pmid string, label model.Label) error
	List(ctx context.Context, answerCol string, fold int) ([]model.Prediction, error)
	Close() error
}

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens or creates the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Folds running in parallel share the store
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		answer_col TEXT NOT NULL,
		fold INTEGER NOT NULL,
		pmid TEXT NOT NULL,
		review_paper TEXT DEFAULT '',
		review TEXT NOT NULL,
		answer TEXT NOT NULL,
		combined TEXT DEFAULT '',
		truth INTEGER NOT NULL,
		predicted INTEGER,
		created_at DATETIME NOT NULL,
		UNIQUE(answer_col, fold, pmid)
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_run ON predictions(run_id);
	CREATE INDEX IF NOT EXISTS idx_predictions_col ON predictions(answer_col, fold);
	`

	_, err := db.Exec(schema)
	return err
}

// Save inserts a prediction, replacing any earlier answer for the same
// column, fold and paper
func (s *SQLiteStore) Save(ctx context.Context, p *model.Prediction) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	var predicted any
	if p.Predicted != nil {
		predicted = int(*p.Predicted)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO predictions (
			run_id, answer_col, fold, pmid, review_paper, review,
			answer, combined, truth, predicted, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(answer_col, fold, pmid) DO UPDATE SET
			run_id = excluded.run_id,
			review_paper = excluded.review_paper,
			review = excluded.review,
			answer = excluded.answer,
			combined = excluded.combined,
			truth = excluded.truth,
			predicted = excluded.predicted,
			created_at = excluded.created_at
	`,
		p.RunID, p.AnswerCol, p.Fold, p.PMID, p.ReviewPaper, p.Review,
		p.Answer, p.Combined, p.Truth, predicted, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction %s: %w", p.PMID, err)
	}
	return nil
}

// SetLabel records the mapped label of a stored answer
func (s *SQLiteStore) SetLabel(ctx context.Context, answerCol string, fold int, pmid string, label model.Label) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE predictions SET predicted = ? WHERE answer_col = ? AND fold = ? AND pmid = ?",
		int(label), answerCol, fold, pmid,
	)
	if err != nil {
		return fmt.Errorf("failed to set label: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set label: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no prediction for %s fold %d pmid %s", answerCol, fold, pmid)
	}
	return nil
}

// List returns the predictions of one column and fold, in insertion order
func (s *SQLiteStore) List(ctx context.Context, answerCol string, fold int) ([]model.Prediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, answer_col, fold, pmid, review_paper, review,
			answer, combined, truth, predicted, created_at
		FROM predictions
		WHERE answer_col = ? AND fold = ?
		ORDER BY id
	`, answerCol, fold)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Prediction
	for rows.Next() {
		var p model.Prediction
		var predicted sql.NullInt64
		if err := rows.Scan(
			&p.RunID, &p.AnswerCol, &p.Fold, &p.PMID, &p.ReviewPaper, &p.Review,
			&p.Answer, &p.Combined, &p.Truth, &predicted, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		if predicted.Valid {
			l := model.Label(predicted.Int64)
			p.Predicted = &l
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
