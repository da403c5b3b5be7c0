package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cartx/internal/models"
)

// CookieRepository stores cookies keyed by host, name and path.
type CookieRepository struct {
	db *sql.DB
}

// NewCookieRepository creates a new CookieRepository with the given database connection
func NewCookieRepository(db *sql.DB) *CookieRepository {
	return &CookieRepository{db: db}
}

// AllCookies returns every stored cookie.
func (r *CookieRepository) AllCookies(ctx context.Context) ([]models.Cookie, error) {
	query := `
		SELECT host, name, value, path, expires_at, secure, http_only, updated_at
		FROM cookies
		ORDER BY host, path, name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}
	defer rows.Close()

	var cookies []models.Cookie
	for rows.Next() {
		c, err := scanCookie(rows)
		if err != nil {
			return nil, err
		}
		cookies = append(cookies, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return cookies, nil
}

// SaveCookie inserts c or replaces the stored cookie with the same host, name and path.
func (r *CookieRepository) SaveCookie(ctx context.Context, c models.Cookie) error {
	if c.Path == "" {
		c.Path = "/"
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO cookies (host, name, value, path, expires_at, secure, http_only, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (host, name, path) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			secure = excluded.secure,
			http_only = excluded.http_only,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		c.Host,
		c.Name,
		c.Value,
		c.Path,
		optionalTime(c.ExpiresAt),
		c.Secure,
		c.HTTPOnly,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save cookie %s: %w", c.Name, err)
	}
	return nil
}

// DeleteCookie removes one cookie. Deleting a missing cookie is not an error.
func (r *CookieRepository) DeleteCookie(ctx context.Context, host, name, path string) error {
	if path == "" {
		path = "/"
	}

	_, err := r.db.ExecContext(ctx, "DELETE FROM cookies WHERE host = ? AND name = ? AND path = ?", host, name, path)
	if err != nil {
		return fmt.Errorf("failed to delete cookie %s: %w", name, err)
	}
	return nil
}

// ClearCookies removes every stored cookie.
func (r *CookieRepository) ClearCookies(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cookies"); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	return nil
}

func scanCookie(s scanner) (models.Cookie, error) {
	var (
		c       models.Cookie
		expires sql.NullTime
		updated sql.NullTime
	)

	err := s.Scan(&c.Host, &c.Name, &c.Value, &c.Path, &expires, &c.Secure, &c.HTTPOnly, &updated)
	if err != nil {
		return models.Cookie{}, fmt.Errorf("failed to scan cookie: %w", err)
	}

	if expires.Valid {
		c.ExpiresAt = expires.Time
	}
	if updated.Valid {
		c.UpdatedAt = updated.Time
	}
	return c, nil
}
