package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UIDDomain qualifies generated session UIDs.
const UIDDomain = "datatracker.ietf.org"

// Meeting is an IETF meeting.
type Meeting struct {
	ID        int64
	Number    string
	City      string
	StartDate time.Time
	TimeZone  string
}

// PK returns the primary key.
func (m *Meeting) PK() int64 { return m.ID }

// Session is one scheduled slot of a working group at a meeting.
type Session struct {
	ID           int64
	MeetingID    int64
	UID          string
	GroupAcronym string
	Name         string
	Room         string
	Start        time.Time
	Duration     time.Duration
}

// PK returns the primary key.
func (s *Session) PK() int64 { return s.ID }

// End returns the session end time.
func (s *Session) End() time.Time {
	return s.Start.Add(s.Duration)
}

// CreateMeeting inserts m and sets its ID.
func (s *Store) CreateMeeting(ctx context.Context, m *Meeting) error {
	if m.Number == "" {
		return fmt.Errorf("meeting number is required")
	}
	if m.TimeZone == "" {
		m.TimeZone = "UTC"
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO meetings (number, city, start_date, time_zone) VALUES (?, ?, ?, ?)",
		m.Number, m.City, formatTime(m.StartDate), m.TimeZone,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("meeting %q: %w", m.Number, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("cannot create meeting %q: %w", m.Number, err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

// MeetingByID loads a meeting by primary key.
func (s *Store) MeetingByID(ctx context.Context, id int64) (*Meeting, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, number, city, start_date, time_zone FROM meetings WHERE id = ?", id)
	m, err := scanMeeting(row)
	if err != nil {
		return nil, notFound(err, "meeting", id)
	}
	return m, nil
}

// MeetingByNumber loads a meeting by its number, e.g. "119".
func (s *Store) MeetingByNumber(ctx context.Context, number string) (*Meeting, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, number, city, start_date, time_zone FROM meetings WHERE number = ?", number)
	m, err := scanMeeting(row)
	if err != nil {
		return nil, notFound(err, "meeting", number)
	}
	return m, nil
}

func scanMeeting(row scanner) (*Meeting, error) {
	var (
		m     Meeting
		start string
	)
	if err := row.Scan(&m.ID, &m.Number, &m.City, &start, &m.TimeZone); err != nil {
		return nil, err
	}
	t, err := parseTime(start)
	if err != nil {
		return nil, err
	}
	m.StartDate = t
	return &m, nil
}

// AddSession inserts sess and sets its ID. The meeting must exist. A
// missing UID is generated.
func (s *Store) AddSession(ctx context.Context, sess *Session) error {
	if sess.UID == "" {
		sess.UID = uuid.NewString() + "@" + UIDDomain
	}
	if sess.GroupAcronym == "" {
		return fmt.Errorf("session group is required")
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (meeting_id, uid, group_acronym, name, room, start_time, duration_s) VALUES (?, ?, ?, ?, ?, ?, ?)",
		sess.MeetingID, sess.UID, sess.GroupAcronym, sess.Name, sess.Room, formatTime(sess.Start), int64(sess.Duration/time.Second),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("session %q: %w", sess.UID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("cannot add session %q: %w", sess.UID, err)
	}
	sess.ID, err = res.LastInsertId()
	return err
}

const sessionColumns = "id, meeting_id, uid, group_acronym, name, room, start_time, duration_s"

// SessionByID loads a session by primary key.
func (s *Store) SessionByID(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
	sess, err := scanSession(row)
	if err != nil {
		return nil, notFound(err, "session", id)
	}
	return sess, nil
}

// SessionsForMeeting returns a meeting's sessions in start order.
func (s *Store) SessionsForMeeting(ctx context.Context, meetingID int64) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE meeting_id = ? ORDER BY start_time, id", meetingID)
	if err != nil {
		return nil, fmt.Errorf("cannot list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func scanSession(row scanner) (*Session, error) {
	var (
		sess     Session
		start    string
		duration int64
	)
	if err := row.Scan(&sess.ID, &sess.MeetingID, &sess.UID, &sess.GroupAcronym, &sess.Name, &sess.Room, &start, &duration); err != nil {
		return nil, err
	}
	t, err := parseTime(start)
	if err != nil {
		return nil, err
	}
	sess.Start = t
	sess.Duration = time.Duration(duration) * time.Second
	return &sess, nil
}
