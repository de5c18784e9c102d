package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/movie-review/internal/model"
)

// SessionRepo persists/validates login sessions (single 'token_hash' column).
// Times are stored as unix seconds so both drivers compare them the same way.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Store inserts a session hash row.
func (r *SessionRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC().Unix())
	return err
}

// GetByHash loads the session row stored under tokenHash.
func (r *SessionRepo) GetByHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	var (
		s         model.Session
		expiresAt int64
		revokedAt sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at FROM sessions WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&s.ID, &s.UserID, &s.TokenHash, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	if revokedAt.Valid {
		t := time.Unix(revokedAt.Int64, 0).UTC()
		s.RevokedAt = &t
	}
	return &s, nil
}

// Validate returns userID if a non-revoked, non-expired session exists.
func (r *SessionRepo) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	s, err := r.GetByHash(ctx, tokenHash)
	if err != nil {
		return 0, err
	}
	if !s.Active(time.Now()) {
		return 0, ErrNotFound
	}
	return s.UserID, nil
}

// RevokeByHash marks a session as revoked.
func (r *SessionRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL",
		time.Now().UTC().Unix(), tokenHash)
	return err
}

// RevokeAllForUser revokes every active session of a user, signing them
// out on all devices.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=? WHERE user_id=? AND revoked_at IS NULL",
		time.Now().UTC().Unix(), userID)
	return err
}

// DeleteExpired removes sessions that expired before now and returns how
// many rows were deleted.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", now.UTC().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
