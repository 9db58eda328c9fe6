package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var userColumns = []string{
	"id", "external_id", "username", "first_name", "last_name",
	"phone", "email", "role", "is_active", "created_at", "updated_at",
}

// UpsertUser creates a user or refreshes the names of an existing one.
// Contacts are left untouched; see UpdateContacts.
func (s *SQLStorage) UpsertUser(ctx context.Context, u User) (User, error) {
	now := formatTime(time.Now())

	query, args, err := s.sb.Insert("users").
		Columns("external_id", "username", "first_name", "last_name", "created_at", "updated_at").
		Values(u.ExternalID, u.Username, u.FirstName, u.LastName, now, now).
		Suffix("ON CONFLICT (external_id) DO UPDATE SET " +
			"username = excluded.username, first_name = excluded.first_name, " +
			"last_name = excluded.last_name, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return User{}, err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return User{}, fmt.Errorf("failed to upsert user: %w", err)
	}

	return s.FindUserByExternalID(ctx, u.ExternalID)
}

// FindUserByExternalID looks a user up by messenger account id.
func (s *SQLStorage) FindUserByExternalID(ctx context.Context, externalID int64) (User, error) {
	query, args, err := s.sb.Select(userColumns...).
		From("users").
		Where(sq.Eq{"external_id": externalID}).
		ToSql()
	if err != nil {
		return User{}, err
	}

	var (
		u                    User
		createdAt, updatedAt string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.ExternalID, &u.Username, &u.FirstName, &u.LastName,
		&u.Phone, &u.Email, &u.Role, &u.IsActive, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}

	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

// UpdateContacts stores phone and e-mail of a user.
func (s *SQLStorage) UpdateContacts(ctx context.Context, userID int64, phone, email string) error {
	query, args, err := s.sb.Update("users").
		Set("phone", phone).
		Set("email", email).
		Set("updated_at", formatTime(time.Now())).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update contacts: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
