package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carbrainiac/apiserver/internal/services"
	"github.com/carbrainiac/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRouterFixture(t *testing.T) (*memUserRepo, http.Handler) {
	t.Helper()
	repo := newMemUserRepo()
	userService := services.NewUserService(repo)

	router := chi.NewRouter()
	router.Route("/api/users", func(r chi.Router) {
		UserRouter(r, userService, nil, testSecret)
	})
	return repo, router
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func validRegistration() map[string]any {
	return map[string]any{
		"name":     "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "Sup3rSecret!",
		"phone":    "+1 555-000-1234",
		"usertype": "buyer",
	}
}

func TestRegisterCreatesUser(t *testing.T) {
	_, router := userRouterFixture(t)

	rec := postJSON(t, router, "/api/users", validRegistration())
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "user created successfully", body["message"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", data["email"])
	assert.Equal(t, "buyer", data["usertype"])
	assert.NotEmpty(t, data["id"])
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "passwordHash")
}

func TestRegisterNormalizesEmail(t *testing.T) {
	repo, router := userRouterFixture(t)

	payload := validRegistration()
	payload["email"] = "  Ada@Example.COM "
	rec := postJSON(t, router, "/api/users", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	_, err := repo.GetByEmail(t.Context(), "ada@example.com")
	assert.NoError(t, err)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	_, router := userRouterFixture(t)

	require.Equal(t, http.StatusCreated, postJSON(t, router, "/api/users", validRegistration()).Code)

	rec := postJSON(t, router, "/api/users", validRegistration())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exist", decodeBody(t, rec)["error"])
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	_, router := userRouterFixture(t)

	payload := validRegistration()
	payload["password"] = "alllowercase"
	rec := postJSON(t, router, "/api/users", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	_, router := userRouterFixture(t)

	payload := validRegistration()
	payload["usertype"] = "admin"
	rec := postJSON(t, router, "/api/users", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsMalformedJSON(t *testing.T) {
	_, router := userRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginReturnsToken(t *testing.T) {
	repo, router := userRouterFixture(t)
	seller := repo.seed(t, "Grace", "grace@example.com", "Sup3rSecret!", types.RoleSeller)

	rec := postJSON(t, router, "/api/users/login", map[string]any{
		"email":    "grace@example.com",
		"password": "Sup3rSecret!",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "login successful", body["message"])

	token, ok := body["data"].(string)
	require.True(t, ok)

	claims, err := ParseToken(token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, seller.ID.String(), claims.ID)
	assert.Equal(t, types.RoleSeller, claims.UserType)
}

func TestLoginUnknownEmailIs404(t *testing.T) {
	_, router := userRouterFixture(t)

	rec := postJSON(t, router, "/api/users/login", map[string]any{
		"email":    "ghost@example.com",
		"password": "whatever123",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User with ghost@example.com not found", decodeBody(t, rec)["error"])
}

func TestLoginWrongPasswordIs400(t *testing.T) {
	repo, router := userRouterFixture(t)
	repo.seed(t, "Grace", "grace@example.com", "Sup3rSecret!", types.RoleSeller)

	rec := postJSON(t, router, "/api/users/login", map[string]any{
		"email":    "grace@example.com",
		"password": "WrongPass1!",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["error"])
}
