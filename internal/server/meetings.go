package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ietf-tools/datatracker/internal/ical"
	"github.com/ietf-tools/datatracker/internal/store"
)

// AgendaProdID identifies the datatracker in calendar feeds.
const AgendaProdID = "-//IETF//datatracker.ietf.org ical agenda//EN"

// handleAgendaICS handles GET /meeting/{number}/agenda.ics.
func (s *Server) handleAgendaICS(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	meeting, err := s.store.MeetingByNumber(r.Context(), number)
	if errors.Is(err, store.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound, fmt.Sprintf("No meeting numbered %s.", number))
		return
	}
	if err != nil {
		s.logger.Error("failed to load meeting", "number", number, "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "The agenda is unavailable.")
		return
	}

	sessions, err := s.store.SessionsForMeeting(r.Context(), meeting.ID)
	if err != nil {
		s.logger.Error("failed to load sessions", "number", number, "error", err)
		s.renderError(w, r, http.StatusInternalServerError, "The agenda is unavailable.")
		return
	}

	cal := &ical.Calendar{
		ProdID: AgendaProdID,
		Name:   fmt.Sprintf("IETF %s agenda", meeting.Number),
	}
	for _, sess := range sessions {
		summary := sess.GroupAcronym
		if sess.Name != "" {
			summary += " - " + sess.Name
		}
		cal.Events = append(cal.Events, ical.Event{
			UID:      sess.UID,
			Summary:  summary,
			Location: sess.Room,
			Start:    sess.Start,
			End:      sess.End(),
		})
	}

	var buf bytes.Buffer
	if err := cal.Write(&buf); err != nil {
		s.logger.Error("failed to write agenda", "number", number, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="ietf-%s.ics"`, meeting.Number))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
