package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carbrainiac/apiserver/internal/apperr"
	"github.com/carbrainiac/apiserver/internal/events"
	"github.com/carbrainiac/apiserver/internal/services"
	"github.com/carbrainiac/apiserver/internal/validation"
	"github.com/carbrainiac/apiserver/types"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler provides registration and login endpoints.
type UserHandler struct {
	userService *services.UserService
	events      *events.Events
	secret      []byte
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(userService *services.UserService, publisher *events.Events, jwtSecret string) *UserHandler {
	return &UserHandler{
		userService: userService,
		events:      publisher,
		secret:      []byte(jwtSecret),
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, publisher *events.Events, jwtSecret string) {
	handler := NewUserHandler(userService, publisher, jwtSecret)

	r.Post("/", handler.Register)
	r.Post("/login", handler.Login)
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password"`
	Phone    string `json:"phone" validate:"required,phone"`
	UserType string `json:"usertype" validate:"required,oneof=buyer seller"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a new user account.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.BadRequest("invalid request payload"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validation.Struct(req); err != nil {
		writeError(w, err)
		return
	}

	exists, err := h.userService.Exists(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if exists {
		writeError(w, apperr.BadRequest("User already exist"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, apperr.Internal("Failed to create user"))
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		UserType:     req.UserType,
		PasswordHash: string(hashed),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.publishRegistered(r.Context(), user)

	writeData(w, http.StatusCreated, "user created successfully", user)
}

// Login verifies credentials and returns a signed token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.BadRequest("invalid request payload"))
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validation.Struct(req); err != nil {
		writeError(w, err)
		return
	}

	// Unknown email surfaces before the password is ever compared.
	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, apperr.BadRequest("Invalid credentials"))
		return
	}

	token, err := IssueToken(user, h.secret)
	if err != nil {
		writeError(w, apperr.Internal("Failed to create token"))
		return
	}

	writeData(w, http.StatusOK, "login successful", token)
}

func (h *UserHandler) publishRegistered(ctx context.Context, user types.User) {
	err := h.events.PublishUserRegistered(ctx, events.UserRegistered{
		ID:       user.ID,
		Email:    user.Email,
		UserType: user.UserType,
		At:       time.Now(),
	})
	if err != nil {
		slog.Error("publish user.registered failed", "error", err)
	}
}
