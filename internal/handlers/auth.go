package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/carbrainiac/apiserver/internal/apperr"
	"github.com/carbrainiac/apiserver/internal/services"
	"github.com/carbrainiac/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
)

// Tokens are long-lived; identity is re-checked against the user store on
// every protected request, so deleting an account revokes access at once.
const tokenTTL = 30 * 24 * time.Hour

// TokenClaims is the signed credential payload: the subject's identifier
// and role.
type TokenClaims struct {
	ID       string `json:"id"`
	UserType string `json:"usertype"`
	jwt.RegisteredClaims
}

// IssueToken signs a credential for the given user.
func IssueToken(user types.User, secret []byte) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		ID:       user.ID.String(),
		UserType: user.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken verifies a credential and returns its claims. Any failure
// (malformed, expired, bad signature, wrong method) is an error.
func ParseToken(tokenString string, secret []byte) (TokenClaims, error) {
	claims := TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return TokenClaims{}, err
	}
	if !token.Valid {
		return TokenClaims{}, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.ID) == "" {
		return TokenClaims{}, errors.New("missing subject")
	}
	return claims, nil
}

// RequireRole returns a request gate for the given role allow-list. The
// subject is looked up in the user store on every call; nothing is cached.
func RequireRole(userService *services.UserService, secret []byte, allowedUserTypes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, apperr.Forbidden("no token provided"))
				return
			}

			claims, err := ParseToken(tokenString, secret)
			if err != nil {
				writeError(w, apperr.Forbidden("invalid token"))
				return
			}

			user, err := userService.GetByID(r.Context(), claims.ID)
			if err != nil {
				writeError(w, apperr.Forbidden("user not found"))
				return
			}

			if !slices.Contains(allowedUserTypes, claims.UserType) {
				writeError(w, apperr.Forbidden("invalid user type"))
				return
			}

			identity := Identity{ID: user.ID, UserType: claims.UserType}
			ctx := context.WithValue(r.Context(), contextIdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Home is the root liveness text endpoint.
func Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Server is healthy and running"))
}
