package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ietf-tools/datatracker/internal/store"
)

type ctxKey int

const userKey ctxKey = iota

// routes configures the HTTP routes.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.loadUser)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "The page you requested does not exist.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusMethodNotAllowed, "That method is not allowed here.")
	})

	r.Get("/", s.handleHome)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(s.static))))

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/login/", s.handleLoginForm)
		r.Post("/login/", s.handleLogin)
		r.Post("/logout/", s.handleLogout)
	})

	r.Route("/doc", func(r chi.Router) {
		r.Get("/", s.handleDocumentList)
		r.Get("/{name}/", s.handleDocument)
		r.With(s.requireLogin).Get("/{name}/edit/", s.handleDocumentEditForm)
		r.With(s.requireLogin).Post("/{name}/edit/", s.handleDocumentEdit)
	})

	r.With(s.requireStaff).Get("/secr/", s.handleSecretariat)

	r.Get("/rfc/{file}", s.handleRFC)
	r.Get("/archive/id/{file}", s.handleDraftArchive)
	r.Get("/meeting/{number}/agenda.ics", s.handleAgendaICS)

	r.Get("/ipr/", s.handleIPR)
	r.Get("/ipr/update/", http.RedirectHandler("/ipr/", http.StatusMovedPermanently).ServeHTTP)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// loadUser attaches the signed-in user, if any, to the request context.
func (s *Server) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		userID, ok := s.ValidateToken(cookie.Value)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.store.UserByID(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				s.logger.Error("failed to load session user", "user_id", userID, "error", err)
			}
			s.RevokeToken(cookie.Value)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// currentUser returns the signed-in user or nil.
func currentUser(r *http.Request) *store.User {
	u, _ := r.Context().Value(userKey).(*store.User)
	return u
}

// requireLogin redirects anonymous requests to the login page.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			http.Redirect(w, r, loginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireStaff rejects everyone but staff with 403.
func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil || !user.IsStaff {
			s.renderError(w, r, http.StatusForbidden, "You do not have permission to access this page.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
