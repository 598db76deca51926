package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/happenit/server/internal/domain/users"
)

var _ users.Repository = (*UserRepository)(nil)

type userRow struct {
	ID               int64
	Name             string
	Surname          *string
	Phone            string
	Email            string
	PasswordHash     string
	ProfileImagePath *string
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

const userColumns = `id, name, surname, phone, email, password_hash, profile_image_path, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO users (name, surname, phone, email, password_hash)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+userColumns,
		params.Name,
		nullableString(params.Surname),
		params.Phone,
		params.Email,
		params.PasswordHash,
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+userColumns+`
  FROM users
 WHERE id = $1`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+userColumns+`
  FROM users
 WHERE email = $1`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, id int64, params users.UpdateParams) (*users.User, error) {
	assignments := make([]string, 0, 6)
	args := make([]any, 0, 7)

	appendSet := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		appendSet("name", *params.Name)
	}
	if params.Surname != nil {
		appendSet("surname", nullableString(*params.Surname))
	}
	if params.Email != nil {
		appendSet("email", *params.Email)
	}
	if params.PasswordHash != nil {
		appendSet("password_hash", *params.PasswordHash)
	}
	if params.ProfileImagePath != nil {
		appendSet("profile_image_path", nullableString(*params.ProfileImagePath))
	}

	if len(assignments) == 0 {
		return r.GetByID(ctx, id)
	}

	assignments = append(assignments, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`
UPDATE users
   SET %s
 WHERE id = $%d
RETURNING %s`, strings.Join(assignments, ", "), len(args), userColumns)

	row := r.queryer().QueryRow(ctx, query, args...)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var r userRow
	if err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Surname,
		&r.Phone,
		&r.Email,
		&r.PasswordHash,
		&r.ProfileImagePath,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	user := &users.User{
		ID:               r.ID,
		Name:             r.Name,
		Surname:          derefString(r.Surname),
		Phone:            r.Phone,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		ProfileImagePath: derefString(r.ProfileImagePath),
	}
	if r.CreatedAt.Valid {
		user.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		user.UpdatedAt = r.UpdatedAt.Time
	}
	return user, nil
}
