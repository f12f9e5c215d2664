package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values for Settings.
const (
	DefaultServerPort   = 8000
	DefaultDatabasePath = "datatracker.db"
	DefaultMailFrom     = "Datatracker <noreply@ietf.org>"
	DefaultLogLevel     = "warn"
)

// DefaultSettings returns Settings with sensible default values.
func DefaultSettings() Settings {
	return Settings{
		Paths: Paths{
			RFCPath:                     "/a/www/ietf-ftp/rfc",
			InternetAllDraftsArchiveDir: "/a/ietfdata/draft/archive",
			InternetDraftArchiveDir:     "/a/ietfdata/draft/collection/draft-archive",
			InternetDraftPath:           "/a/ietfdata/draft/repository",
		},
		Server:   ServerConfig{Port: DefaultServerPort},
		Database: Database{Path: DefaultDatabasePath},
		Mail: Mail{
			Backend: MailBackendLog,
			From:    DefaultMailFrom,
		},
		LogLevel: DefaultLogLevel,
	}
}

// ValidationError represents a settings validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// LoadSettings reads and parses the settings file at path.
// An empty path returns the defaults. Missing fields keep their defaults.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return &s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("settings file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	if err := ValidateSettings(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

// ValidateSettings checks that all settings values are valid.
func ValidateSettings(s *Settings) error {
	if s.Server.Port < 0 || s.Server.Port > 65535 {
		return ValidationError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	if s.Database.Path == "" {
		return ValidationError{Field: "database.path", Message: "required field is empty"}
	}

	switch s.Mail.Backend {
	case MailBackendOutbox, MailBackendLog:
	case MailBackendSES:
		if s.Mail.Region == "" {
			return ValidationError{Field: "mail.region", Message: "required for the ses backend"}
		}
	default:
		return ValidationError{Field: "mail.backend", Message: fmt.Sprintf("unknown backend %q", s.Mail.Backend)}
	}
	if s.Mail.From == "" {
		return ValidationError{Field: "mail.from", Message: "required field is empty"}
	}

	for _, key := range PathKeys() {
		v, _ := s.Paths.Get(key)
		if strings.TrimSpace(v) == "" {
			return ValidationError{Field: "paths." + strings.ToLower(string(key)), Message: "required field is empty"}
		}
	}

	return nil
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
