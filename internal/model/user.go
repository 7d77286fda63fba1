package model

import (
	"errors"
	"time"
)

// User represents a registered account.
type User struct {
	ID              int64     `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	Email           string    `db:"email" json:"email"`
	PasswordHashed  string    `db:"password_hashed" json:"-"`
	Bio             *string   `db:"bio" json:"bio"`
	ProfileImageURL *string   `db:"profile_image_url" json:"profile_image_url"`
	Online          bool      `db:"online" json:"online"`
	IsAdmin         bool      `db:"is_admin" json:"is_admin"`
	FollowerCount   int       `db:"follower_count" json:"follower_count"`
	FollowingCount  int       `db:"following_count" json:"following_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Owner identifies the account itself: a user record is owned by the user.
func (u *User) Owner() int64 { return u.ID }

// UserSummary is the compact user representation embedded in other resources.
type UserSummary struct {
	ID              int64   `db:"id" json:"id"`
	Username        string  `db:"username" json:"username"`
	ProfileImageURL *string `db:"profile_image_url" json:"profile_image_url"`
	Online          bool    `db:"online" json:"online"`
	IsFollowing     bool    `json:"is_following"`
}

// RegisterRequest is the request body for account creation.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for credential login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries the mutable profile fields. Nil means "leave as is".
type UpdateProfileRequest struct {
	Email           *string `json:"email"`
	Bio             *string `json:"bio"`
	ProfileImageURL *string `json:"profile_image_url"`
	Password        *string `json:"password"`
}

// ProfileResponse is a user profile enriched with the viewer's follow status.
type ProfileResponse struct {
	User        *User `json:"user"`
	IsFollowing bool  `json:"is_following"`
}

const MinPasswordLength = 5

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrEmailExists is returned when attempting to create a user with a taken email
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordTooShort is returned when a password fails the minimum length check
	ErrPasswordTooShort = errors.New("password too short")
)
