package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/happenit/server/internal/api/problem"
	"github.com/happenit/server/internal/auth"
	"github.com/happenit/server/internal/domain/users"
	"github.com/happenit/server/internal/messages"
	"github.com/happenit/server/internal/metrics"
)

type AuthHandler struct {
	Users   *users.Service
	Tokens  *auth.TokenIssuer
	Catalog *messages.Catalog
	Env     string
}

func NewAuthHandler(usersService *users.Service, tokens *auth.TokenIssuer, catalog *messages.Catalog, env string) *AuthHandler {
	return &AuthHandler{Users: usersService, Tokens: tokens, Catalog: catalog, Env: env}
}

// loginRequest binds the login body. The email travels in "username";
// "email" is accepted as an alias for clients that send that instead.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) loginEmail() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

type loginResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
	Token   string `json:"token"`
}

// Login handles POST /api/v1/login. Unknown email and wrong password
// produce the same 401 so the two are indistinguishable to a caller.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation,
			h.Catalog.Get(messages.KeyValidationFailed), err, h.Env)
		return
	}

	identity, err := h.Users.Authenticate(r.Context(), req.loginEmail(), req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		}
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	token, err := h.Tokens.Issue(identity.ID, identity.Name)
	if err != nil {
		writeDomainError(w, r, err, h.Catalog, h.Env)
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, loginResponse{
		Message: h.Catalog.Get(messages.KeyLoginOK),
		UserID:  identity.ID,
		Name:    identity.Name,
		Token:   token,
	})
}
