package config

// PathKey names one of the filesystem path settings.
type PathKey string

// Path settings that may be overridden per test.
const (
	RFCPath                     PathKey = "RFC_PATH"
	InternetAllDraftsArchiveDir PathKey = "INTERNET_ALL_DRAFTS_ARCHIVE_DIR"
	InternetDraftArchiveDir     PathKey = "INTERNET_DRAFT_ARCHIVE_DIR"
	InternetDraftPath           PathKey = "INTERNET_DRAFT_PATH"
)

// Paths holds the archive and repository directories the application reads from.
type Paths struct {
	RFCPath                     string `yaml:"rfc_path"`
	InternetAllDraftsArchiveDir string `yaml:"internet_all_drafts_archive_dir"`
	InternetDraftArchiveDir     string `yaml:"internet_draft_archive_dir"`
	InternetDraftPath           string `yaml:"internet_draft_path"`
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Database holds the store location.
type Database struct {
	// Path is a sqlite DSN; ":memory:" is accepted.
	Path string `yaml:"path"`
}

// Mail selects and configures the outgoing mail backend.
type Mail struct {
	Backend string `yaml:"backend"`
	From    string `yaml:"from"`
	Region  string `yaml:"region"`
}

// Mail backends.
const (
	MailBackendOutbox = "outbox"
	MailBackendLog    = "log"
	MailBackendSES    = "ses"
)

// Settings represents the datatracker settings file.
type Settings struct {
	Paths    Paths        `yaml:"paths"`
	Server   ServerConfig `yaml:"server"`
	Database Database     `yaml:"database"`
	Mail     Mail         `yaml:"mail"`
	LogLevel string       `yaml:"log_level"`
}

// PathKeys lists every known path key in declaration order.
func PathKeys() []PathKey {
	return []PathKey{RFCPath, InternetAllDraftsArchiveDir, InternetDraftArchiveDir, InternetDraftPath}
}

// DefaultTempPathOverrides returns the path settings that tests replace with
// empty temporary directories.
func DefaultTempPathOverrides() []PathKey {
	return PathKeys()
}

// Get returns the value stored under key.
func (p Paths) Get(key PathKey) (string, bool) {
	switch key {
	case RFCPath:
		return p.RFCPath, true
	case InternetAllDraftsArchiveDir:
		return p.InternetAllDraftsArchiveDir, true
	case InternetDraftArchiveDir:
		return p.InternetDraftArchiveDir, true
	case InternetDraftPath:
		return p.InternetDraftPath, true
	}
	return "", false
}

// Set stores value under key. It reports false for unknown keys.
func (p *Paths) Set(key PathKey, value string) bool {
	switch key {
	case RFCPath:
		p.RFCPath = value
	case InternetAllDraftsArchiveDir:
		p.InternetAllDraftsArchiveDir = value
	case InternetDraftArchiveDir:
		p.InternetDraftArchiveDir = value
	case InternetDraftPath:
		p.InternetDraftPath = value
	default:
		return false
	}
	return true
}
