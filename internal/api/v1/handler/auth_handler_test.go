package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invexqr/internal/api/v1/dto"
	"invexqr/internal/model"
)

func newAuthMux(userSvc *fakeUserService, userID string) *http.ServeMux {
	validate := validator.New(validator.WithRequiredStructEnabled())
	h := NewAuthHandler(userSvc, validate, zerolog.Nop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, injectUser(userID))
	return mux
}

func TestAuthRegisterValidation(t *testing.T) {
	mux := newAuthMux(&fakeUserService{users: map[string]*model.User{}}, "")

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"password":"longenough"}`},
		{"short password", `{"email":"jane@example.com","password":"short"}`},
		{"bad email", `{"email":"not-an-email","password":"longenough"}`},
		{"not json", `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAuthCurrentUser(t *testing.T) {
	email := "jane@example.com"
	userSvc := &fakeUserService{users: map[string]*model.User{
		"user-1": {ID: "user-1", Email: &email},
	}}
	mux := newAuthMux(userSvc, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.UserResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "user-1", resp.ID)
	require.NotNil(t, resp.Email)
	assert.Equal(t, "jane@example.com", *resp.Email)
}

func TestAuthCurrentUserUnknownAccount(t *testing.T) {
	mux := newAuthMux(&fakeUserService{users: map[string]*model.User{}}, "ghost")

	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
