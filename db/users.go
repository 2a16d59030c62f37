package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"redeploy/internal/apperr"
	"redeploy/models"
)

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`
	err := s.db.GetContext(ctx, u, s.db.Rebind(query), strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, mapDriverError(err, "user")
	}
	return u, nil
}

// SaveUser создаёт администратора или меняет ему пароль, если email уже есть.
func (s *Storage) SaveUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	query := `
        INSERT INTO users (email, password_hash, created_at)
        VALUES (?, ?, ?)
        ON CONFLICT (email) DO UPDATE SET password_hash = excluded.password_hash
        RETURNING id`
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(query), u.Email, u.PasswordHash, u.CreatedAt).Scan(&u.ID)
	return mapDriverError(err, "user")
}
