// Package queue defines message payloads exchanged over the message broker.
package queue

// UserRegisteredEvent is published when a new account has been created.
// It contains enough information for the notifier to send the welcome
// mail without querying the primary database.
type UserRegisteredEvent struct {
    UserID       uint64 `json:"user_id"`
    Username     string `json:"username"`
    Email        string `json:"email"`
    RegisteredAt string `json:"registered_at"`
}
