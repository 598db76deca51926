// Package users implements the user domain: registration with password
// policy enforcement and bcrypt hashing, undifferentiated authentication,
// partial profile updates, and profile image attachment.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/happenit/server/internal/auth"
	"github.com/happenit/server/internal/media"
	"github.com/happenit/server/internal/sanitize"
)

// WelcomeMailer sends the post-registration welcome email. Sending is
// best-effort; failures never fail the registration.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

type Service struct {
	repo      Repository
	media     media.Store
	mailer    WelcomeMailer
	logger    zerolog.Logger
	validator *validator.Validate
}

func NewService(repo Repository, mediaStore media.Store, mailer WelcomeMailer, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		media:     mediaStore,
		mailer:    mailer,
		logger:    logger.With().Str("component", "users").Logger(),
		validator: validator.New(),
	}
}

type RegisterParams struct {
	Name            string `validate:"required"`
	Surname         string
	Phone           string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required"`
}

// Register validates the password policy, enforces email uniqueness, hashes
// the password and persists the user. The returned record carries the hash
// only internally; response shapes never serialize it.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if err := s.validator.Struct(params); err != nil {
		return nil, validationErrorFromStruct(err)
	}
	if err := ValidatePasswordPolicy(params.Password, params.ConfirmPassword); err != nil {
		return nil, err
	}

	// Pre-insert check; the unique index on email is the authoritative
	// guard under concurrency and maps to the same error.
	if _, err := s.repo.GetByEmail(ctx, params.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, CreateParams{
		Name:         sanitize.Text(params.Name),
		Surname:      sanitize.Text(params.Surname),
		Phone:        sanitize.Text(params.Phone),
		Email:        params.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("user registered")

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, user.Email, user.Name); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("welcome email failed")
		}
	}
	return user, nil
}

// Identity is the minimal payload returned on successful authentication.
type Identity struct {
	ID   int64
	Name string
}

// Authenticate verifies email and password. Unknown email and wrong
// password collapse into the same ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn a hash comparison so an unknown email costs the same
			// as a wrong password.
			auth.BurnPasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user authenticated")
	return &Identity{ID: user.ID, Name: user.Name}, nil
}

// UpdateProfileParams carries the three independent sub-updates of a
// profile edit. Nil fields are absent; any subset may be supplied.
type UpdateProfileParams struct {
	Name    *string
	Surname *string
	Email   *string

	// Password change: all three must be supplied together.
	CurrentPassword *string
	NewPassword     *string
	ConfirmPassword *string

	// Image replacement: present when len(Image) > 0.
	Image         []byte
	ImageFilename string
}

// UpdateProfile applies a partial profile update. Name, surname and email
// update unconditionally when supplied; the password updates only after the
// current password verifies; the image reference updates only when new
// bytes are supplied.
func (s *Service) UpdateProfile(ctx context.Context, id int64, params UpdateProfileParams) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := UpdateParams{}
	if params.Name != nil {
		name := sanitize.Text(*params.Name)
		if name == "" {
			return nil, ValidationError{Field: "name", Message: "must not be empty"}
		}
		update.Name = &name
	}
	if params.Surname != nil {
		surname := sanitize.Text(*params.Surname)
		update.Surname = &surname
	}
	if params.Email != nil {
		if err := s.validator.Var(*params.Email, "required,email"); err != nil {
			return nil, ValidationError{Field: "email", Message: "must be a valid email address"}
		}
		update.Email = params.Email
	}

	if params.NewPassword != nil {
		if params.CurrentPassword == nil || !auth.VerifyPassword(*params.CurrentPassword, user.PasswordHash) {
			return nil, ValidationError{Field: "current_password", Message: "current password is incorrect"}
		}
		confirm := ""
		if params.ConfirmPassword != nil {
			confirm = *params.ConfirmPassword
		}
		if err := ValidatePasswordPolicy(*params.NewPassword, confirm); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*params.NewPassword)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hash
	}

	previousImage := ""
	if len(params.Image) > 0 {
		ref, err := s.media.Save(ctx, media.ProfileImagesDir, params.ImageFilename, params.Image)
		if err != nil {
			return nil, fmt.Errorf("store profile image: %w", err)
		}
		update.ProfileImagePath = &ref
		previousImage = user.ProfileImagePath
	}

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.removeStaleImage(ctx, previousImage, updated.ProfileImagePath)

	s.logger.Info().Int64("user_id", id).Msg("profile updated")
	return updated, nil
}

// AttachProfileImage stores the uploaded bytes and records the returned
// reference on the user. Re-uploading overwrites the reference; the prior
// binary is removed best-effort once the record points elsewhere.
func (s *Service) AttachProfileImage(ctx context.Context, id int64, filename string, data []byte) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ValidationError{Field: "file", Message: "image file is required"}
	}

	ref, err := s.media.Save(ctx, media.ProfileImagesDir, filename, data)
	if err != nil {
		return nil, fmt.Errorf("store profile image: %w", err)
	}

	updated, err := s.repo.Update(ctx, id, UpdateParams{ProfileImagePath: &ref})
	if err != nil {
		return nil, err
	}

	s.removeStaleImage(ctx, user.ProfileImagePath, updated.ProfileImagePath)

	s.logger.Info().Int64("user_id", id).Str("image", ref).Msg("profile image attached")
	return updated, nil
}

// GetByID returns a user or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) removeStaleImage(ctx context.Context, previous, current string) {
	if previous == "" || previous == current {
		return
	}
	if err := s.media.Remove(ctx, previous); err != nil {
		s.logger.Warn().Err(err).Str("image", previous).Msg("stale profile image cleanup failed")
	}
}

func validationErrorFromStruct(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return ValidationError{Field: lowerSnake(first.Field()), Message: "failed " + first.Tag() + " validation"}
	}
	return ValidationError{Message: err.Error()}
}

func lowerSnake(field string) string {
	switch field {
	case "ConfirmPassword":
		return "confirm_password"
	case "Name":
		return "name"
	case "Surname":
		return "surname"
	case "Phone":
		return "phone"
	case "Email":
		return "email"
	case "Password":
		return "password"
	default:
		return field
	}
}
