package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carbrainiac/apiserver/config"
	"github.com/carbrainiac/apiserver/internal/db"
	"github.com/carbrainiac/apiserver/internal/events"
	"github.com/carbrainiac/apiserver/internal/handlers"
	"github.com/carbrainiac/apiserver/internal/images"
	"github.com/carbrainiac/apiserver/internal/services"
	"github.com/carbrainiac/apiserver/internal/storage"
	"github.com/carbrainiac/apiserver/internal/store"
	"github.com/carbrainiac/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *events.Events
}

// New constructs a Server with its full dependency graph: database,
// object storage, optional event broker, and all routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objectStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	publisher, err := events.NewFromConfig(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	carRepo := store.NewCarRepository(dbConn)

	userService := services.NewUserService(userRepo)
	carService := services.NewCarService(carRepo)
	uploader := images.NewUploader(objectStore)

	secret := []byte(jwtSecret)
	requireSeller := handlers.RequireRole(userService, secret, types.RoleSeller)
	requireAnyRole := handlers.RequireRole(userService, secret, types.RoleBuyer, types.RoleSeller)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		middleware.Compress(5),
		secureHeaders,
		corsMiddleware(cfg.AllowedOrigins),
		httprate.LimitByIP(100, time.Minute),
	)

	router.Get("/", handlers.Home)
	router.Get("/healthz", handlers.Healthz)
	router.Get("/api-docs", handlers.APIDocs)
	router.Route("/api/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, publisher, jwtSecret)
	})
	router.Route("/api/cars", func(r chi.Router) {
		handlers.CarRouter(r, carService, uploader, publisher, requireSeller, requireAnyRole)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     publisher,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, then closes the broker and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
