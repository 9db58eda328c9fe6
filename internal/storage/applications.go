package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tusur-bots/faculty-advisor/internal/logging"
)

var applicationColumns = []string{"id", "user_id", "faculty_code", "status", "created_at"}

// AddApplication records an application. A second call for the same user
// and faculty leaves the table unchanged and returns the existing row.
func (s *SQLStorage) AddApplication(ctx context.Context, userID int64, facultyCode string) (Application, bool, error) {
	query, args, err := s.sb.Insert("applications").
		Columns("user_id", "faculty_code", "status", "created_at").
		Values(userID, facultyCode, DefaultStatus, formatTime(time.Now())).
		Suffix("ON CONFLICT (user_id, faculty_code) DO NOTHING").
		ToSql()
	if err != nil {
		return Application{}, false, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Application{}, false, fmt.Errorf("failed to insert application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Application{}, false, fmt.Errorf("failed to insert application: %w", err)
	}

	app, err := s.findApplication(ctx, userID, facultyCode)
	if err != nil {
		return Application{}, false, err
	}
	return app, n > 0, nil
}

func (s *SQLStorage) findApplication(ctx context.Context, userID int64, facultyCode string) (Application, error) {
	query, args, err := s.sb.Select(applicationColumns...).
		From("applications").
		Where(sq.Eq{"user_id": userID, "faculty_code": facultyCode}).
		ToSql()
	if err != nil {
		return Application{}, err
	}

	var (
		app       Application
		createdAt string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&app.ID, &app.UserID, &app.FacultyCode, &app.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, fmt.Errorf("failed to query application: %w", err)
	}
	app.CreatedAt = parseTime(createdAt)
	return app, nil
}

// ListApplicationsByUser returns a user's applications, oldest first.
func (s *SQLStorage) ListApplicationsByUser(ctx context.Context, userID int64) ([]Application, error) {
	query, args, err := s.sb.Select(applicationColumns...).
		From("applications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		var (
			app       Application
			createdAt string
		)
		if err := rows.Scan(&app.ID, &app.UserID, &app.FacultyCode, &app.Status, &createdAt); err != nil {
			logging.Warn().Err(err).Msg("failed to scan application row")
			continue
		}
		app.CreatedAt = parseTime(createdAt)
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
