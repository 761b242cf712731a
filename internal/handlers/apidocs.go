package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.json
var openapiDoc []byte

// APIDocs serves the OpenAPI document for the HTTP API.
func APIDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapiDoc)
}
