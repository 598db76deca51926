package users

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/happenit/server/internal/auth"
)

type fakeRepo struct {
	nextID  int64
	byID    map[int64]*User
	byEmail map[string]*User

	createErr error
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, byID: map[int64]*User{}, byEmail: map[string]*User{}}
}

func (r *fakeRepo) Create(_ context.Context, params CreateParams) (*User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.byEmail[params.Email]; ok {
		return nil, ErrEmailTaken
	}
	user := &User{
		ID:           r.nextID,
		Name:         params.Name,
		Surname:      params.Surname,
		Phone:        params.Phone,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now(),
	}
	r.nextID++
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return copyUser(user), nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(user), nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(user), nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, params UpdateParams) (*User, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Surname != nil {
		user.Surname = *params.Surname
	}
	if params.Email != nil {
		delete(r.byEmail, user.Email)
		user.Email = *params.Email
		r.byEmail[user.Email] = user
	}
	if params.PasswordHash != nil {
		user.PasswordHash = *params.PasswordHash
	}
	if params.ProfileImagePath != nil {
		user.ProfileImagePath = *params.ProfileImagePath
	}
	user.UpdatedAt = time.Now()
	return copyUser(user), nil
}

func copyUser(u *User) *User {
	clone := *u
	return &clone
}

type fakeMedia struct {
	saved   []string
	removed []string
	saveErr error
}

func (m *fakeMedia) Save(_ context.Context, dir, filename string, _ []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	ref := fmt.Sprintf("%s/%d_%s", dir, len(m.saved)+1, filename)
	m.saved = append(m.saved, ref)
	return ref, nil
}

func (m *fakeMedia) Remove(_ context.Context, ref string) error {
	m.removed = append(m.removed, ref)
	return nil
}

func newTestService(repo *fakeRepo, store *fakeMedia) *Service {
	return NewService(repo, store, nil, zerolog.Nop())
}

func validRegister() RegisterParams {
	return RegisterParams{
		Name:            "Ana",
		Phone:           "555",
		Email:           "ana@x.com",
		Password:        "Secret1!",
		ConfirmPassword: "Secret1!",
	}
}

func TestRegisterCreatesUser(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeMedia{})

	user, err := svc.Register(context.Background(), validRegister())

	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)
	require.Equal(t, "Ana", user.Name)
	require.Equal(t, "ana@x.com", user.Email)
	require.NotEmpty(t, user.PasswordHash)
	require.NotEqual(t, "Secret1!", user.PasswordHash)
	require.True(t, auth.VerifyPassword("Secret1!", user.PasswordHash))
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeMedia{})

	_, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegister())
	require.ErrorIs(t, err, ErrEmailTaken)
	require.Len(t, repo.byID, 1)
}

func TestRegisterEnforcesPasswordPolicy(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeMedia{})

	tests := []struct {
		name   string
		mutate func(*RegisterParams)
	}{
		{"mismatch", func(p *RegisterParams) { p.ConfirmPassword = "Other1!x" }},
		{"too short", func(p *RegisterParams) { p.Password, p.ConfirmPassword = "Ab1!", "Ab1!" }},
		{"no special", func(p *RegisterParams) { p.Password, p.ConfirmPassword = "Secreto123", "Secreto123" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validRegister()
			tt.mutate(&params)

			_, err := svc.Register(context.Background(), params)

			var vErr ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeMedia{})

	params := validRegister()
	params.Email = "not-an-email"

	_, err := svc.Register(context.Background(), params)

	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "email", vErr.Field)
}

func TestRegisterStripsHTMLFromName(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeMedia{})

	params := validRegister()
	params.Name = "Ana <script>alert(1)</script>"

	user, err := svc.Register(context.Background(), params)

	require.NoError(t, err)
	require.Equal(t, "Ana", user.Name)
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeMedia{})
	_, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	identity, err := svc.Authenticate(context.Background(), "ana@x.com", "Secret1!")

	require.NoError(t, err)
	require.Equal(t, int64(1), identity.ID)
	require.Equal(t, "Ana", identity.Name)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeMedia{})
	_, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(context.Background(), "ana@x.com", "Wrong1!x")
	_, unknownEmail := svc.Authenticate(context.Background(), "nadie@x.com", "Secret1!")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeMedia{})

	name := "Ana María"
	_, err := svc.UpdateProfile(context.Background(), 99, UpdateProfileParams{Name: &name})

	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfilePartialFields(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeMedia{})
	created, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	surname := "García"
	updated, err := svc.UpdateProfile(context.Background(), created.ID, UpdateProfileParams{Surname: &surname})

	require.NoError(t, err)
	require.Equal(t, "García", updated.Surname)
	// Untouched fields survive.
	require.Equal(t, "Ana", updated.Name)
	require.Equal(t, "ana@x.com", updated.Email)
	require.Equal(t, created.PasswordHash, updated.PasswordHash)
}

func TestUpdateProfilePasswordRequiresCurrent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeMedia{})
	created, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	wrong := "Wrong1!x"
	newPass := "Nuevo123!"
	_, err = svc.UpdateProfile(context.Background(), created.ID, UpdateProfileParams{
		CurrentPassword: &wrong,
		NewPassword:     &newPass,
		ConfirmPassword: &newPass,
	})

	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "current_password", vErr.Field)
}

func TestUpdateProfilePasswordChange(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeMedia{})
	created, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	current := "Secret1!"
	newPass := "Nuevo123!"
	updated, err := svc.UpdateProfile(context.Background(), created.ID, UpdateProfileParams{
		CurrentPassword: &current,
		NewPassword:     &newPass,
		ConfirmPassword: &newPass,
	})

	require.NoError(t, err)
	require.True(t, auth.VerifyPassword("Nuevo123!", updated.PasswordHash))
	require.False(t, auth.VerifyPassword("Secret1!", updated.PasswordHash))
}

func TestAttachProfileImage(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeMedia{}
	svc := newTestService(repo, store)
	created, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	updated, err := svc.AttachProfileImage(context.Background(), created.ID, "avatar.png", []byte("png"))

	require.NoError(t, err)
	require.True(t, strings.HasPrefix(updated.ProfileImagePath, "profile_images/"))
}

func TestAttachProfileImageUnknownUser(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeMedia{})

	_, err := svc.AttachProfileImage(context.Background(), 42, "avatar.png", []byte("png"))

	require.ErrorIs(t, err, ErrNotFound)
}

func TestAttachProfileImageReuploadRemovesPreviousBinary(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeMedia{}
	svc := newTestService(repo, store)
	created, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	first, err := svc.AttachProfileImage(context.Background(), created.ID, "a.png", []byte("a"))
	require.NoError(t, err)
	second, err := svc.AttachProfileImage(context.Background(), created.ID, "b.png", []byte("b"))
	require.NoError(t, err)

	require.NotEqual(t, first.ProfileImagePath, second.ProfileImagePath)
	require.Equal(t, []string{first.ProfileImagePath}, store.removed)
}
