package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-review/internal/database"
	"github.com/iliyamo/movie-review/internal/model"
	"github.com/iliyamo/movie-review/internal/utils"
)

const userColumns = "id, username, email, password_hash, is_active"

// NewUser carries the registration fields.  Password is in clear text and
// is hashed before it reaches the database.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UserUpdate carries the editable account fields.  An empty Password keeps
// the current one.
type UserUpdate struct {
	ID        uint64
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// CreateWithProfile inserts the user and its profile in one transaction so
// that a user never exists without a profile.  The profile email starts as
// the account email.
func (r *UserRepo) CreateWithProfile(ctx context.Context, nu NewUser, cost int) (model.User, model.UserProfile, error) {
	hash, err := utils.HashPassword(nu.Password, cost)
	if err != nil {
		return model.User{}, model.UserProfile{}, err
	}
	u := model.User{
		Username:     strings.TrimSpace(nu.Username),
		Email:        strings.TrimSpace(nu.Email),
		PasswordHash: hash,
		IsActive:     true,
	}
	p := model.UserProfile{
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Email:     u.Email,
	}

	err = database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO users (username, email, password_hash, is_active) VALUES (?,?,?,?)",
			u.Username, u.Email, u.PasswordHash, u.IsActive)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		u.ID = uint64(id)
		p.UserID = u.ID

		res, err = tx.ExecContext(ctx,
			"INSERT INTO user_profiles (user_id, first_name, last_name, email) VALUES (?,?,?,?)",
			p.UserID, p.FirstName, p.LastName, p.Email)
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		pid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = uint64(pid)
		return nil
	})
	if err != nil {
		return model.User{}, model.UserProfile{}, err
	}
	return u, p, nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UsernameTaken reports whether username belongs to a user other than
// exceptID (pass 0 to check against every user).
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, exceptID uint64) (bool, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username=? AND id<>?",
		strings.TrimSpace(username), exceptID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateWithProfile persists the base user row and the profile row in one
// transaction.  The profile is created when it is missing.
func (r *UserRepo) UpdateWithProfile(ctx context.Context, up UserUpdate, cost int) error {
	var hash string
	if up.Password != "" {
		h, err := utils.HashPassword(up.Password, cost)
		if err != nil {
			return err
		}
		hash = h
	}

	return database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		var (
			q    = "UPDATE users SET username=?, email=?, updated_at=CURRENT_TIMESTAMP WHERE id=?"
			args = []any{strings.TrimSpace(up.Username), strings.TrimSpace(up.Email), up.ID}
		)
		if hash != "" {
			q = "UPDATE users SET username=?, email=?, password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?"
			args = []any{strings.TrimSpace(up.Username), strings.TrimSpace(up.Email), hash, up.ID}
		}
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("update user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}

		res, err = tx.ExecContext(ctx,
			"UPDATE user_profiles SET first_name=?, last_name=?, email=? WHERE user_id=?",
			up.FirstName, up.LastName, strings.TrimSpace(up.Email), up.ID)
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO user_profiles (user_id, first_name, last_name, email) VALUES (?,?,?,?)",
			up.ID, up.FirstName, up.LastName, strings.TrimSpace(up.Email))
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
}
