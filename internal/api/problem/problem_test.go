package problem

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var p ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestWriteSetsContentTypeAndInstance(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/9", nil)

	Write(rec, req, http.StatusNotFound, TypeNotFound, "Evento no encontrado", nil, "production")

	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	p := decode(t, rec)
	assert.Equal(t, http.StatusNotFound, p.Status)
	assert.Equal(t, TypeNotFound, p.Type)
	assert.Equal(t, "/api/v1/events/9", p.Instance)
}

func TestWriteHidesErrorDetailInProduction(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)

	Write(rec, req, http.StatusInternalServerError, TypeServerError, "Error interno", errors.New("pq: connection refused"), "production")

	p := decode(t, rec)
	assert.NotContains(t, p.Detail, "connection refused")
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), p.Detail)
}

func TestWriteShowsErrorDetailInDevelopment(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)

	Write(rec, req, http.StatusBadRequest, TypeValidation, "Solicitud inválida", errors.New("missing field"), "development")

	p := decode(t, rec)
	assert.Equal(t, "missing field", p.Detail)
}

func TestWriteErrorsOption(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)

	Write(rec, req, http.StatusBadRequest, TypeValidation, "Solicitud inválida", nil, "production",
		WithErrors(map[string]interface{}{"password": "demasiado corta"}),
		WithDetail("revisa los campos"),
	)

	p := decode(t, rec)
	assert.Equal(t, "revisa los campos", p.Detail)
	assert.Equal(t, "demasiado corta", p.Errors["password"])
}
