package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// User models an account that can sign in and manage customers.
// Users are created once at registration and never updated or deleted.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
}

// UserFields are the registration insert fields. Password is plaintext here and
// only ever leaves the auth service as a bcrypt hash.
type UserFields struct {
	Username string
	Password string
	Name     string
}
