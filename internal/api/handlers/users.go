package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/happenit/server/internal/api/problem"
	"github.com/happenit/server/internal/domain/users"
	"github.com/happenit/server/internal/messages"
	"github.com/happenit/server/internal/metrics"
)

type UsersHandler struct {
	Service *users.Service
	Catalog *messages.Catalog
	Env     string
}

func NewUsersHandler(service *users.Service, catalog *messages.Catalog, env string) *UsersHandler {
	return &UsersHandler{Service: service, Catalog: catalog, Env: env}
}

type registerRequest struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Register handles POST /api/v1/users.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation,
			h.Catalog.Get(messages.KeyValidationFailed), err, h.Env)
		return
	}

	user, err := h.Service.Register(r.Context(), users.RegisterParams{
		Name:            req.Name,
		Surname:         req.Surname,
		Phone:           req.Phone,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	metrics.RegistrationsTotal.Inc()
	writeJSON(w, http.StatusCreated, userToPayload(user))
}

// UploadProfileImage handles PUT /api/v1/users/{id}/profile-image. The
// image arrives as the multipart field "file".
func (h *UsersHandler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	filename, data, err := readMultipartFile(r, "file")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation,
			h.Catalog.Get(messages.KeyValidationFailed), err, h.Env)
		return
	}

	user, err := h.Service.AttachProfileImage(r.Context(), id, filename, data)
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	metrics.MediaUploadsTotal.WithLabelValues("profile").Inc()
	writeJSON(w, http.StatusOK, userToPayload(user))
}

// UpdateProfile handles PUT /api/v1/users/{id}/profile. The form fields
// are all optional; each supplied group is applied independently.
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation,
			h.Catalog.Get(messages.KeyValidationFailed), err, h.Env)
		return
	}

	params := users.UpdateProfileParams{
		Name:            formValue(r, "name"),
		Surname:         formValue(r, "surname"),
		Email:           formValue(r, "email"),
		CurrentPassword: formValue(r, "current_password"),
		NewPassword:     formValue(r, "new_password"),
		ConfirmPassword: formValue(r, "confirm_password"),
	}

	if filename, data, err := readMultipartFile(r, "image"); err == nil {
		params.Image = data
		params.ImageFilename = filename
	}

	user, err := h.Service.UpdateProfile(r.Context(), id, params)
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": h.Catalog.Get(messages.KeyProfileUpdated),
		"user":    userToPayload(user),
	})
}

// formValue returns a pointer only when the field was supplied, so
// absent and empty fields are distinguishable downstream.
func formValue(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	value := values[0]
	return &value
}

func readMultipartFile(r *http.Request, field string) (string, []byte, error) {
	var file multipart.File
	var header *multipart.FileHeader
	var err error

	if r.MultipartForm != nil {
		if headers, ok := r.MultipartForm.File[field]; ok && len(headers) > 0 {
			header = headers[0]
			file, err = header.Open()
		} else {
			return "", nil, http.ErrMissingFile
		}
	} else {
		file, header, err = r.FormFile(field)
	}
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}

	filename := "upload"
	if header != nil && strings.TrimSpace(header.Filename) != "" {
		filename = header.Filename
	}
	return filename, data, nil
}
