package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dukerupert/jotter/internal/database"
	"github.com/dukerupert/jotter/internal/handler"
	"github.com/dukerupert/jotter/internal/middleware"
	"github.com/dukerupert/jotter/internal/session"
	"github.com/dukerupert/jotter/internal/store"
	ws "github.com/dukerupert/jotter/internal/websocket"
	"github.com/dukerupert/jotter/web"
)

type Config struct {
	SecureCookies  bool
	LoginRateLimit int  // attempts per client IP per minute
	TrustProxy     bool // key rate limits on X-Forwarded-For / CF-Connecting-IP
}

type Server struct {
	db          *database.DB
	hub         *ws.Hub
	sessions    session.Store
	authH       *handler.AuthHandler
	noteH       *handler.NoteHandler
	accountH    *handler.AccountHandler
	rateLimiter *middleware.RateLimiter
	clientKey   func(*http.Request) string
	ready       atomic.Bool
	logger      *slog.Logger
}

func New(db *database.DB, sessions session.Store, cfg Config, logger *slog.Logger) (*Server, error) {
	renderer, err := handler.NewRenderer(web.Templates(), logger.With("component", "render"))
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	noteStore := store.NewNoteStore(db)
	accountStore := store.NewAccountStore(db)

	loginLimit := cfg.LoginRateLimit
	if loginLimit <= 0 {
		loginLimit = 10
	}

	s := &Server{
		db:          db,
		hub:         hub,
		sessions:    sessions,
		authH:       handler.NewAuthHandler(userStore, sessions, hub, renderer, cfg.SecureCookies, logger.With("component", "auth")),
		noteH:       handler.NewNoteHandler(noteStore, userStore, hub, renderer, logger.With("component", "notes")),
		accountH:    handler.NewAccountHandler(userStore, accountStore, sessions, hub, renderer, cfg.SecureCookies, logger.With("component", "account")),
		rateLimiter: middleware.NewRateLimiter(loginLimit, time.Minute),
		clientKey:   middleware.ByIP(cfg.TrustProxy),
		logger:      logger,
	}
	s.ready.Store(true)
	return s, nil
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() session.Store {
	return s.sessions
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// SetReady marks whether the schema is in place. /health reports 503 until it is.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	logger := s.logger.With("component", "session")

	// Public routes
	optional := middleware.OptionalAuth(s.sessions, logger)
	mux.Handle("GET /{$}", optional(http.HandlerFunc(s.authH.Landing)))
	mux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	mux.HandleFunc("POST /signup", s.rateLimitedHandler(s.authH.Signup))
	mux.HandleFunc("GET /logout", s.authH.Logout)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.Static())))
	mux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	authMw := middleware.RequireAuth(s.sessions, logger)
	protect := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMw(h))
	}
	protect("GET /notes", s.noteH.List)
	protect("POST /add-note", s.noteH.Add)
	protect("GET /edit-note/{id}", s.noteH.EditForm)
	protect("POST /edit-note/{id}", s.noteH.Edit)
	protect("GET /delete-note/{id}", s.noteH.Delete)
	protect("GET /account-settings", s.accountH.Settings)
	protect("POST /change-username", s.accountH.ChangeUsername)
	protect("POST /change-password", s.accountH.ChangePassword)
	protect("POST /delete-account", s.accountH.DeleteAccount)
	protect("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if !s.ready.Load() || s.db.PingContext(ctx) != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, s.clientKey, s.logger.With("component", "ratelimit"))
	return rl(h).ServeHTTP
}
