package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/carbrainiac/apiserver/internal/apperr"
	"github.com/google/uuid"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context by
// the authorization middleware.
type Identity struct {
	ID       uuid.UUID
	UserType string
}

func identityFromContext(ctx context.Context) (Identity, error) {
	identity, ok := ctx.Value(contextIdentityKey).(Identity)
	if !ok || identity.ID == uuid.Nil {
		return Identity{}, errors.New("missing identity")
	}
	return identity, nil
}

// Response is the uniform success envelope.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{Message: message, Data: data})
}

// writeError funnels every failure through one formatter: typed errors
// keep their status and message, anything else defaults to 500.
func writeError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	writeJSON(w, appErr.StatusCode, appErr)
}

func decodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
