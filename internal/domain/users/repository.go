package users

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a user id or email does not resolve.
var ErrNotFound = errors.New("user not found")

// ErrEmailTaken is returned when an email would violate the uniqueness
// invariant, either from the pre-insert check or from the unique index.
var ErrEmailTaken = errors.New("email is already taken")

// ErrInvalidCredentials is returned for any authentication failure. Callers
// must not be able to tell an unknown email from a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

type User struct {
	ID               int64
	Name             string
	Surname          string
	Phone            string
	Email            string
	PasswordHash     string
	ProfileImagePath string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type CreateParams struct {
	Name         string
	Surname      string
	Phone        string
	Email        string
	PasswordHash string
}

// UpdateParams carries partial updates; nil fields are left untouched.
type UpdateParams struct {
	Name             *string
	Surname          *string
	Email            *string
	PasswordHash     *string
	ProfileImagePath *string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*User, error)
}
