package model

import "time"

// Category groups movies (e.g. Drama, Comedy).  Deleting a category deletes
// its movies.
type Category struct {
    ID   uint64 // categories.id
    Name string // categories.name
}

// Movie represents a catalog entry owned by the user who created it.  Only
// the owner may edit or delete it.  Poster holds the storage key of the
// optional poster image and is empty when none was uploaded.
//
// CategoryName and OwnerName are filled by list/detail queries that join
// the related tables; they are not persisted on the movie row.
type Movie struct {
    ID           uint64    // movies.id
    Title        string    // movies.title
    Poster       string    // movies.poster (nullable)
    Description  string    // movies.description
    ReleaseDate  time.Time // movies.release_date
    Actors       string    // movies.actors
    CategoryID   uint64    // movies.category_id
    TrailerLink  string    // movies.trailer_link
    UserID       uint64    // movies.user_id (owner)
    CategoryName string    // categories.name
    OwnerName    string    // users.username
}

// OwnedBy reports whether userID is the movie's owner.
func (m *Movie) OwnedBy(userID uint64) bool {
    return m != nil && userID != 0 && m.UserID == userID
}

// Review is a rating with a comment left by a user on a movie.  A user may
// review the same movie several times.
type Review struct {
    ID         uint64 // reviews.id
    MovieID    uint64 // reviews.movie_id
    UserID     uint64 // reviews.user_id
    Rating     uint32 // reviews.rating (non-negative)
    Comment    string // reviews.comment
    AuthorName string // users.username
}

// RatingSummary aggregates the reviews of one movie.
type RatingSummary struct {
    Average float64
    Count   int64
}
