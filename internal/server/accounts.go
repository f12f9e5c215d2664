package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ietf-tools/datatracker/internal/store"
)

const invalidLoginMessage = "Please enter a correct username and password."

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home", &page{})
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", &page{
		Form: newForm(nil),
		Next: safeNext(r.URL.Query().Get("next")),
	})
}

// handleLogin handles POST /accounts/login/.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ip := extractIP(r)
	result := s.limiter.check(ip)
	if !result.Allowed {
		s.logger.Warn("login rejected",
			"ip", ip,
			"reason", result.Reason,
			"attempts", result.Attempts,
			"retry_after", result.RetryAfter,
		)
		w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
		http.Error(w, result.Reason, http.StatusTooManyRequests)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	f := newForm(r.PostForm)
	next := safeNext(r.PostForm.Get("next"))

	user, err := s.VerifyPassword(r.Context(), f.Value("username"), r.PostForm.Get("password"))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("login failed", "username", f.Value("username"), "error", err)
	}
	if user == nil {
		s.limiter.recordFailure(ip)
		f.Errors["__all__"] = invalidLoginMessage
		s.render(w, r, http.StatusOK, "login", &page{Form: f, Next: next})
		return
	}
	s.limiter.recordSuccess(ip)

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		s.logger.Error("failed to create session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokenExpiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info("user signed in", "username", user.Username, "ip", ip)
	http.Redirect(w, r, next, http.StatusFound)
}

// handleLogout handles POST /accounts/logout/.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.RevokeToken(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleSecretariat(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "secr", &page{})
}

func (s *Server) handleIPR(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "ipr", &page{})
}
