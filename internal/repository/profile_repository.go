package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-review/internal/model"
)

// ProfileRepo reads the 1:1 user_profiles extension.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// GetByUserID returns the profile of a user or ErrNotFound.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uint64) (*model.UserProfile, error) {
	var p model.UserProfile
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, first_name, last_name, email FROM user_profiles WHERE user_id=? LIMIT 1",
		userID).Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetOrCreate returns the user's profile, creating an empty one (with the
// account email) for users that predate automatic provisioning.
func (r *ProfileRepo) GetOrCreate(ctx context.Context, u *model.User) (*model.UserProfile, error) {
	p, err := r.GetByUserID(ctx, u.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_profiles (user_id, first_name, last_name, email) VALUES (?,?,?,?)",
		u.ID, "", "", u.Email)
	if err != nil {
		// lost a race with a concurrent request for the same user
		if isUniqueViolation(err) {
			return r.GetByUserID(ctx, u.ID)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.UserProfile{ID: uint64(id), UserID: u.ID, Email: u.Email}, nil
}
