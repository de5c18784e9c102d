package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/movie-review/internal/model"
)

// ReviewRepo stores ratings and comments left on movies.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// Create inserts a review and fills its ID.  A missing movie is reported
// as ErrNotFound.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (movie_id, user_id, rating, comment) VALUES (?, ?, ?, ?)",
		rv.MovieID, rv.UserID, rv.Rating, rv.Comment)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert review: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// ListByMovie returns the reviews of a movie, newest first.
func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	q, args, err := sq.Select("r.id", "r.movie_id", "r.user_id", "r.rating", "r.comment", "u.username").
		From("reviews r").
		Join("users u ON u.id = r.user_id").
		Where(sq.Eq{"r.movie_id": movieID}).
		OrderBy("r.id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Review, 0)
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.MovieID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.AuthorName); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary returns the average rating and review count of a movie.  A movie
// without reviews yields a zero summary.
func (r *ReviewRepo) Summary(ctx context.Context, movieID uint64) (model.RatingSummary, error) {
	var s model.RatingSummary
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE movie_id = ?",
		movieID).Scan(&s.Count, &s.Average)
	return s, err
}
