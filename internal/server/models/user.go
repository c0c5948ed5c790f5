// Package models defines the persisted row types shared by repositories and
// services on the server side.
package models

import "time"

// User is an account row. The token core only reads it; writes go through
// the account service.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
}
