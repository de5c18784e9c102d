package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/movie-review/internal/database"
	"github.com/iliyamo/movie-review/internal/model"
)

// DateLayout is the wire and storage format of movies.release_date.
const DateLayout = "2006-01-02"

// MovieQuery filters List.  An empty Title matches every movie.
type MovieQuery struct {
	Title string
}

// MovieRepo encapsulates all database queries related to movies.
type MovieRepo struct {
	db    *sql.DB
	lower string // SQL function folding titles like database.Fold
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db, lower: database.LowerFunc(db)}
}

var movieColumns = []string{
	"m.id", "m.title", "m.poster", "m.description", "m.release_date", "m.actors",
	"m.category_id", "m.trailer_link", "m.user_id", "c.name", "u.username",
}

func selectMovies() sq.SelectBuilder {
	return sq.Select(movieColumns...).
		From("movies m").
		Join("categories c ON c.id = m.category_id").
		Join("users u ON u.id = m.user_id")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*model.Movie, error) {
	var (
		m      model.Movie
		poster sql.NullString
	)
	err := row.Scan(&m.ID, &m.Title, &poster, &m.Description, dateScanner{&m.ReleaseDate}, &m.Actors,
		&m.CategoryID, &m.TrailerLink, &m.UserID, &m.CategoryName, &m.OwnerName)
	if err != nil {
		return nil, err
	}
	m.Poster = poster.String
	return &m, nil
}

// dateScanner accepts DATE columns as time.Time (mysql with parseTime) and
// as text (sqlite).
type dateScanner struct{ t *time.Time }

func (d dateScanner) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*d.t = time.Time{}
		return nil
	case time.Time:
		*d.t = v.UTC()
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("release_date: unsupported type %T", src)
	}
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("release_date: %w", err)
	}
	*d.t = t
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a movie owned by m.UserID and fills its ID.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	q, args, err := sq.Insert("movies").
		Columns("title", "poster", "description", "release_date", "actors", "category_id", "trailer_link", "user_id").
		Values(m.Title, nullable(m.Poster), m.Description, m.ReleaseDate.Format(DateLayout), m.Actors,
			m.CategoryID, m.TrailerLink, m.UserID).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidCategory
		}
		return fmt.Errorf("insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID fetches a movie with its category and owner names.  It returns
// ErrNotFound if no row is found.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	q, args, err := selectMovies().Where(sq.Eq{"m.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// List returns movies ordered by id.  A non-empty Title keeps only movies
// whose title contains it, ignoring case.
func (r *MovieRepo) List(ctx context.Context, mq MovieQuery) ([]model.Movie, error) {
	b := selectMovies()
	if title := strings.TrimSpace(mq.Title); title != "" {
		b = b.Where(sq.Expr(r.lower+"(m.title) LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(database.Fold(title))+"%"))
	}
	q, args, err := b.OrderBy("m.id ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// likeEscaper escapes LIKE metacharacters with '!', the escape character
// declared in the query.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// UpdateByIDAndOwner rewrites the editable fields of a movie provided it
// belongs to ownerID.  An empty m.Poster keeps the stored poster; otherwise
// the previous poster key is returned so the caller can remove the object.
// If the movie does not exist ErrNotFound is returned; if it is owned by a
// different user ErrForbidden is returned and nothing is written.
func (r *MovieRepo) UpdateByIDAndOwner(ctx context.Context, m *model.Movie, ownerID uint64) (replacedPoster string, err error) {
	err = database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		var (
			dbOwnerID uint64
			poster    sql.NullString
		)
		if err := tx.QueryRowContext(ctx, `SELECT user_id, poster FROM movies WHERE id = ?`, m.ID).Scan(&dbOwnerID, &poster); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if dbOwnerID != ownerID {
			return ErrForbidden
		}

		ub := sq.Update("movies").
			Set("title", m.Title).
			Set("description", m.Description).
			Set("release_date", m.ReleaseDate.Format(DateLayout)).
			Set("actors", m.Actors).
			Set("category_id", m.CategoryID).
			Set("trailer_link", m.TrailerLink).
			Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
			Where(sq.Eq{"id": m.ID})
		if m.Poster != "" {
			ub = ub.Set("poster", m.Poster)
			if poster.String != m.Poster {
				replacedPoster = poster.String
			}
		} else {
			m.Poster = poster.String
		}
		q, args, err := ub.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			if isForeignKeyViolation(err) {
				return ErrInvalidCategory
			}
			return fmt.Errorf("update movie: %w", err)
		}
		m.UserID = dbOwnerID
		return nil
	})
	if err != nil {
		return "", err
	}
	return replacedPoster, nil
}

// DeleteByIDAndOwner removes a movie and its reviews provided it belongs
// to the specified owner, and returns the poster key of the deleted row.
// If the movie does not exist ErrNotFound is returned. If the movie exists
// but is owned by a different user, ErrForbidden is returned. The deletion
// occurs within a transaction to maintain integrity.
func (r *MovieRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (poster string, err error) {
	err = database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		// Verify movie exists and ownership
		var (
			dbOwnerID uint64
			key       sql.NullString
		)
		if err := tx.QueryRowContext(ctx, `SELECT user_id, poster FROM movies WHERE id = ?`, id).Scan(&dbOwnerID, &key); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if dbOwnerID != ownerID {
			return ErrForbidden
		}
		// Reviews first, then the movie itself
		if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE movie_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id); err != nil {
			return err
		}
		poster = key.String
		return nil
	})
	if err != nil {
		return "", err
	}
	return poster, nil
}
