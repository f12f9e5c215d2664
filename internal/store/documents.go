package store

import (
	"context"
	"fmt"
	"time"
)

// Document states.
const (
	StateActive  = "active"
	StateExpired = "expired"
	StateRFC     = "rfc"
)

// Document is an Internet-Draft or RFC.
type Document struct {
	ID       int64
	Name     string
	Title    string
	Abstract string
	Rev      string
	State    string
	// Notify is a comma-separated list of addresses mailed on change.
	Notify    string
	UpdatedAt time.Time
}

// PK returns the primary key.
func (d *Document) PK() int64 { return d.ID }

const documentColumns = "id, name, title, abstract, rev, state, notify, updated_at"

// CreateDocument inserts d and sets its ID.
func (s *Store) CreateDocument(ctx context.Context, d *Document) error {
	if d.Name == "" {
		return fmt.Errorf("document name is required")
	}
	if d.Rev == "" {
		d.Rev = "00"
	}
	if d.State == "" {
		d.State = StateActive
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (name, title, abstract, rev, state, notify, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		d.Name, d.Title, d.Abstract, d.Rev, d.State, d.Notify, formatTime(d.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("document %q: %w", d.Name, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("cannot create document %q: %w", d.Name, err)
	}
	d.ID, err = res.LastInsertId()
	return err
}

// DocumentByID loads a document by primary key.
func (s *Store) DocumentByID(ctx context.Context, id int64) (*Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	d, err := scanDocument(row)
	if err != nil {
		return nil, notFound(err, "document", id)
	}
	return d, nil
}

// DocumentByName loads a document by name.
func (s *Store) DocumentByName(ctx context.Context, name string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE name = ?", name)
	d, err := scanDocument(row)
	if err != nil {
		return nil, notFound(err, "document", name)
	}
	return d, nil
}

// ListDocuments returns all documents ordered by name.
func (s *Store) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("cannot list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateDocument writes the mutable fields of d and bumps UpdatedAt.
func (s *Store) UpdateDocument(ctx context.Context, d *Document) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET title = ?, abstract = ?, rev = ?, state = ?, notify = ?, updated_at = ? WHERE id = ?",
		d.Title, d.Abstract, d.Rev, d.State, d.Notify, formatTime(d.UpdatedAt), d.ID,
	)
	if err != nil {
		return fmt.Errorf("cannot update document %q: %w", d.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cannot update document %q: %w", d.Name, err)
	}
	if n == 0 {
		return fmt.Errorf("document %d: %w", d.ID, ErrNotFound)
	}
	return nil
}

func scanDocument(row scanner) (*Document, error) {
	var (
		d       Document
		updated string
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Title, &d.Abstract, &d.Rev, &d.State, &d.Notify, &updated); err != nil {
		return nil, err
	}
	t, err := parseTime(updated)
	if err != nil {
		return nil, err
	}
	d.UpdatedAt = t
	return &d, nil
}
