package model

import "time"

// User represents an account as stored in the `users` table.  The
// password is never kept in clear text; only its bcrypt hash.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – contact address, used for the welcome notification.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – whether the account may log in.
type User struct {
    ID           uint64 // users.id
    Username     string // users.username
    Email        string // users.email
    PasswordHash string // users.password_hash
    IsActive     bool   // users.is_active
}

// UserProfile is the 1:1 extension of User kept in `user_profiles`.
// Every user has exactly one profile once registration completes; it is
// deleted together with the user.
type UserProfile struct {
    ID        uint64 // user_profiles.id
    UserID    uint64 // user_profiles.user_id
    FirstName string // user_profiles.first_name
    LastName  string // user_profiles.last_name
    Email     string // user_profiles.email
}

// Session models an entry in the `sessions` table.  The cookie carries a
// signed token whose id is stored here only as a SHA‑256 hash, so a leaked
// table cannot be replayed.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  TokenHash – SHA‑256 hex digest of the token id.
//  ExpiresAt – expiration time.
//  RevokedAt – when the session was ended by logout or a password
//              change (nil if active).
type Session struct {
    ID        uint64     // sessions.id
    UserID    uint64     // sessions.user_id
    TokenHash string     // sessions.token_hash
    ExpiresAt time.Time  // sessions.expires_at (unix seconds)
    RevokedAt *time.Time // sessions.revoked_at (nullable)
}

// Active reports whether the session can still authenticate at now.
func (s *Session) Active(now time.Time) bool {
    return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
