package server

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ietf-tools/datatracker/internal/config"
)

var fileNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// handleRFC handles GET /rfc/{file}.
func (s *Server) handleRFC(w http.ResponseWriter, r *http.Request) {
	s.serveFromDirs(w, r, chi.URLParam(r, "file"), config.RFCPath)
}

// handleDraftArchive handles GET /archive/id/{file}.
func (s *Server) handleDraftArchive(w http.ResponseWriter, r *http.Request) {
	s.serveFromDirs(w, r, chi.URLParam(r, "file"), config.InternetDraftPath, config.InternetDraftArchiveDir)
}

// serveFromDirs serves name from the first configured directory that has it.
func (s *Server) serveFromDirs(w http.ResponseWriter, r *http.Request, name string, keys ...config.PathKey) {
	if !fileNamePattern.MatchString(name) {
		s.renderError(w, r, http.StatusNotFound, "No such file.")
		return
	}

	for _, key := range keys {
		dir := config.CurrentPath(key)
		if dir == "" {
			continue
		}
		f, err := os.Open(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			s.logger.Error("failed to open file", "key", string(key), "name", name, "error", err)
			s.renderError(w, r, http.StatusInternalServerError, "The file could not be read.")
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			continue
		}
		if strings.HasSuffix(name, ".txt") {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		http.ServeContent(w, r, name, info.ModTime(), f)
		return
	}

	s.renderError(w, r, http.StatusNotFound, "No such file.")
}
