package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// RecordRecommendation appends to the recommendation history. A missing ID
// or timestamp is filled in.
func (s *SQLStorage) RecordRecommendation(ctx context.Context, rec RecommendationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query, args, err := s.sb.Insert("recommendations").
		Columns("id", "chat_hash", "faculty_code", "source", "confidence", "created_at").
		Values(rec.ID, rec.ChatHash, rec.FacultyCode, rec.Source, rec.Confidence, formatTime(rec.CreatedAt)).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record recommendation: %w", err)
	}
	return nil
}

// RecommendationStats counts recommendations per faculty and source since
// the given time.
func (s *SQLStorage) RecommendationStats(ctx context.Context, since time.Time) ([]FacultyCount, error) {
	query, args, err := s.sb.Select("faculty_code", "source", "COUNT(*)").
		From("recommendations").
		Where(sq.GtOrEq{"created_at": formatTime(since)}).
		GroupBy("faculty_code", "source").
		OrderBy("faculty_code", "source").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation stats: %w", err)
	}
	defer rows.Close()

	counts := []FacultyCount{}
	for rows.Next() {
		var c FacultyCount
		if err := rows.Scan(&c.FacultyCode, &c.Source, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation stats: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
