package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ietf-tools/datatracker/internal/auth"
	"github.com/ietf-tools/datatracker/internal/config"
	"github.com/ietf-tools/datatracker/internal/email"
	"github.com/ietf-tools/datatracker/internal/logging"
	"github.com/ietf-tools/datatracker/internal/store"
	"github.com/ietf-tools/datatracker/web"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "sessionid"

// Server represents the datatracker web server.
type Server struct {
	port     int
	store    *store.Store
	mailer   email.Sender
	mailFrom string
	logger   *logging.Logger

	pages  map[string]*template.Template
	static fs.FS
	router chi.Router

	limiter *rateLimiter

	// HTTP server
	server   *http.Server
	listener net.Listener

	// Session management
	mu       sync.RWMutex
	sessions map[string]session // token -> session

	// Lifecycle
	started bool
}

type session struct {
	userID int64
	expiry time.Time
}

// Config holds server configuration options.
type Config struct {
	Port     int
	Store    *store.Store
	Mailer   email.Sender
	MailFrom string
	// RateLimit applies to login POSTs. Zero fields take the defaults.
	RateLimit RateLimitConfig
	// AssetsPath overrides the directory checked for development assets.
	AssetsPath string
	Logger     *logging.Logger
}

// NewServer creates a new Server instance.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Mailer == nil {
		return nil, errors.New("mailer is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	mailFrom := cfg.MailFrom
	if mailFrom == "" {
		mailFrom = config.DefaultMailFrom
	}

	assets := web.GetAssets(cfg.AssetsPath)
	pages, err := web.Templates(assets, templateFuncs)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	static, err := web.Static(assets)
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}

	s := &Server{
		port:     cfg.Port,
		store:    cfg.Store,
		mailer:   cfg.Mailer,
		mailFrom: mailFrom,
		logger:   logger.With("component", "server"),
		pages:    pages,
		static:   static,
		limiter:  newRateLimiter(cfg.RateLimit),
		sessions: make(map[string]session),
	}
	s.router = s.routes()
	return s, nil
}

// NewServerFromSettings creates a Server from loaded settings.
func NewServerFromSettings(settings *config.Settings, st *store.Store, mailer email.Sender) (*Server, error) {
	if settings == nil {
		return nil, errors.New("settings are required")
	}
	return NewServer(&Config{
		Port:     settings.Server.Port,
		Store:    st,
		Mailer:   mailer,
		MailFrom: settings.Mail.From,
	})
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
// The server runs until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	addr := fmt.Sprintf(":%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.started = true
	s.mu.Unlock()

	go s.sweep(ctx)

	s.logger.Info("listening", "addr", listener.Addr().String())
	err = s.server.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.started = false
	return nil
}

// ListenAddr returns the actual address the server is listening on.
// Useful when port 0 is used to get an available port.
// Returns empty string if not started.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// tokenExpiry is how long session tokens are valid.
const tokenExpiry = 24 * time.Hour

// GenerateToken creates a session token for userID.
func (s *Server) GenerateToken(userID int64) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	token := hex.EncodeToString(bytes)

	s.mu.Lock()
	s.sessions[token] = session{userID: userID, expiry: time.Now().Add(tokenExpiry)}
	s.mu.Unlock()

	return token, nil
}

// ValidateToken returns the user a token belongs to, if it is valid and
// not expired.
func (s *Server) ValidateToken(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}

	s.mu.RLock()
	sess, exists := s.sessions[token]
	s.mu.RUnlock()

	if !exists || !time.Now().Before(sess.expiry) {
		return 0, false
	}
	return sess.userID, true
}

// RevokeToken removes a token from the valid sessions.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// sweep periodically removes expired sessions and stale rate limit state.
func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.removeExpiredSessions(time.Now())
			s.limiter.cleanup()
		}
	}
}

func (s *Server) removeExpiredSessions(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, sess := range s.sessions {
		if now.After(sess.expiry) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// VerifyPassword checks a username and password against the store.
func (s *Server) VerifyPassword(ctx context.Context, username, password string) (*store.User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return user, nil
}
