// Package models defines server-side data models persisted in the database.
package models

import (
	"database/sql"
	"fmt"
	"time"
)

// UserRole distinguishes accounts that may upload files from accounts that
// may obtain download links. A user holds exactly one role.
type UserRole string

const (
	RoleUploader   UserRole = "uploader"
	RoleDownloader UserRole = "downloader"
)

// ParseUserRole validates a role string coming from a request payload.
func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case RoleUploader:
		return RoleUploader, nil
	case RoleDownloader:
		return RoleDownloader, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is an account record. VerificationToken and its expiry are set at
// signup and nulled once the email is verified.
type User struct {
	ID                         int64
	Email                      string
	PasswordHash               string
	IsActive                   bool
	IsVerified                 bool
	Role                       UserRole
	VerificationToken          sql.NullString
	VerificationTokenExpiresAt sql.NullTime
	CreatedAt                  time.Time
}
