package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ietf-tools/datatracker/internal/email"
	"github.com/ietf-tools/datatracker/internal/store"
)

var revPattern = regexp.MustCompile(`^[0-9]{2}$`)

func (s *Server) handleDocumentList(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("failed to list documents", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "The document list is unavailable.")
		return
	}
	s.render(w, r, http.StatusOK, "doc_list", &page{Documents: docs})
}

// lookupDocument loads the {name} document, rendering 404 when it is missing.
func (s *Server) lookupDocument(w http.ResponseWriter, r *http.Request) (*store.Document, bool) {
	name := chi.URLParam(r, "name")
	doc, err := s.store.DocumentByName(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound, fmt.Sprintf("No document named %s.", name))
		return nil, false
	}
	if err != nil {
		s.logger.Error("failed to load document", "name", name, "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "The document is unavailable.")
		return nil, false
	}
	return doc, true
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookupDocument(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "doc", &page{Document: doc})
}

func (s *Server) handleDocumentEditForm(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookupDocument(w, r)
	if !ok {
		return
	}
	f := newForm(nil)
	f.values.Set("title", doc.Title)
	f.values.Set("rev", doc.Rev)
	f.values.Set("abstract", doc.Abstract)
	s.render(w, r, http.StatusOK, "doc_edit", &page{Document: doc, Form: f})
}

// handleDocumentEdit handles POST /doc/{name}/edit/. A valid submission
// is saved, announced by mail and redirected to the document page.
func (s *Server) handleDocumentEdit(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookupDocument(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	f := newForm(r.PostForm)
	if f.Value("title") == "" {
		f.Errors["title"] = "This field is required."
	}
	if !revPattern.MatchString(f.Value("rev")) {
		f.Errors["rev"] = "Enter a two-digit revision such as 00 or 01."
	}
	if !f.valid() {
		s.render(w, r, http.StatusOK, "doc_edit", &page{Document: doc, Form: f})
		return
	}

	doc.Title = f.Value("title")
	doc.Rev = f.Value("rev")
	doc.Abstract = f.Value("abstract")
	if err := s.store.UpdateDocument(r.Context(), doc); err != nil {
		s.logger.Error("failed to update document", "name", doc.Name, "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "The document could not be saved.")
		return
	}

	user := currentUser(r)
	if err := s.notifyDocumentUpdated(r.Context(), doc, user); err != nil {
		s.logger.Error("failed to send update notification", "name", doc.Name, "error", err)
	}
	http.Redirect(w, r, "/doc/"+doc.Name+"/", http.StatusFound)
}

func (s *Server) notifyDocumentUpdated(ctx context.Context, doc *store.Document, by *store.User) error {
	var to []string
	for _, addr := range strings.Split(doc.Notify, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	var cc []string
	if by.Email != "" {
		cc = append(cc, by.Email)
	}
	if len(to) == 0 && len(cc) == 0 {
		s.logger.Debug("no recipients for update notification", "name", doc.Name)
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "The document %s has been updated by %s.\n\n", doc.Name, by.Username)
	fmt.Fprintf(&body, "Title: %s\n", doc.Title)
	fmt.Fprintf(&body, "Revision: %s\n", doc.Rev)
	if doc.Abstract != "" {
		fmt.Fprintf(&body, "\nAbstract:\n%s\n", doc.Abstract)
	}

	msg, err := email.Compose(email.Envelope{
		From:    s.mailFrom,
		To:      to,
		Cc:      cc,
		Subject: "Document updated: " + doc.Name,
		Text:    body.String(),
	})
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}
