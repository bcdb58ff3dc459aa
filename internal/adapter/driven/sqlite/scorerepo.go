package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
	"github.com/ericfisherdev/issuepulse/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ScoreStore = (*ScoreRepo)(nil)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ScoreRepo is the SQLite implementation of the ScoreStore port interface.
type ScoreRepo struct {
	db *DB
}

// NewScoreRepo creates a new ScoreRepo backed by the given DB.
func NewScoreRepo(db *DB) *ScoreRepo {
	return &ScoreRepo{db: db}
}

// Save inserts a score record and returns it with its assigned ID. A zero
// ComputedAt is replaced with the current time.
func (r *ScoreRepo) Save(ctx context.Context, record model.ScoreRecord) (model.ScoreRecord, error) {
	const query = `INSERT INTO engagement_scores
		(issue_id, owner, repository, number, score, previous_score, classification, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	if record.ComputedAt.IsZero() {
		record.ComputedAt = time.Now()
	}
	record.ComputedAt = record.ComputedAt.UTC()

	result, err := r.db.Writer.ExecContext(ctx, query,
		record.IssueID,
		strings.ToLower(record.Owner),
		strings.ToLower(record.Repository),
		record.Number,
		record.Score,
		record.PreviousScore,
		string(record.Classification),
		record.ComputedAt.Format(timeLayout),
	)
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("save score for %s/%s#%d: %w", record.Owner, record.Repository, record.Number, err)
	}

	record.ID, err = result.LastInsertId()
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("get last insert id: %w", err)
	}

	return record, nil
}

// ListByIssue returns the recorded scores for an issue, newest first. Owner
// and repository are matched case-insensitively.
func (r *ScoreRepo) ListByIssue(ctx context.Context, owner, repo string, number int) ([]model.ScoreRecord, error) {
	const query = `SELECT id, issue_id, owner, repository, number, score, previous_score, classification, computed_at
		FROM engagement_scores
		WHERE owner = ? AND repository = ? AND number = ?
		ORDER BY computed_at DESC, id DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, strings.ToLower(owner), strings.ToLower(repo), number)
	if err != nil {
		return nil, fmt.Errorf("list scores for %s/%s#%d: %w", owner, repo, number, err)
	}
	defer rows.Close()

	records := []model.ScoreRecord{}
	for rows.Next() {
		record, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}

	return records, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanScore(s scanner) (model.ScoreRecord, error) {
	var record model.ScoreRecord
	var classification, computedAt string

	err := s.Scan(
		&record.ID,
		&record.IssueID,
		&record.Owner,
		&record.Repository,
		&record.Number,
		&record.Score,
		&record.PreviousScore,
		&classification,
		&computedAt,
	)
	if err != nil {
		return model.ScoreRecord{}, err
	}

	record.Classification = model.EngagementClassification(classification)
	record.ComputedAt, err = parseTime(computedAt)
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("parse computed_at: %w", err)
	}

	return record, nil
}

// parseTime tries the storage layout first, then common SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
