package utils // package utils provides helper functions for session tokens and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 hashing for session ids
    "encoding/hex"  // hex encoding and decoding functions
    "errors"
    "strconv"
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidSession is returned by ParseSessionToken for any token that is
// malformed, expired, signed with another key or missing required claims.
var ErrInvalidSession = errors.New("invalid session token")

// SessionToken is a signed JWT placed in the session cookie.  ID is the
// random token id (jti); only its hash is stored server side so that a
// session can be revoked on logout.
type SessionToken struct {
    Token string    // the serialized JWT string
    ID    string    // random token id carried in the jti claim
    Exp   time.Time // the UTC expiration time
}

// SessionClaims is what a verified session token tells us.
type SessionClaims struct {
    UserID uint64
    ID     string
}

// NewSessionToken builds and signs an HS256 JWT for a user.  The token
// carries the standard claims: subject (user id), jti, exp and iat.
func NewSessionToken(secret string, userID uint64, ttl time.Duration) (SessionToken, error) {
    id, err := randomHex(32)
    if err != nil {
        return SessionToken{}, err
    }
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.RegisteredClaims{
        Subject:   strconv.FormatUint(userID, 10),
        ID:        id,
        ExpiresAt: jwt.NewNumericDate(exp),
        IssuedAt:  jwt.NewNumericDate(now),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, ID: id, Exp: exp}, nil
}

// ParseSessionToken verifies signature and expiry and returns the claims.
// Only HMAC signatures are accepted.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
    var claims jwt.RegisteredClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidSession
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return SessionClaims{}, ErrInvalidSession
    }
    uid, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil || uid == 0 || claims.ID == "" {
        return SessionClaims{}, ErrInvalidSession
    }
    return SessionClaims{UserID: uid, ID: claims.ID}, nil
}

// HashTokenID returns the SHA‑256 hash of a session token id as a hex
// string.  Only the hash is stored in the sessions table.
func HashTokenID(id string) string {
    sum := sha256.Sum256([]byte(id))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
