package testutil

import (
	"os"
	"regexp"
	"strings"

	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/datatracker/internal/config"
)

// Case points path settings at fresh temporary directories for one test.
// The override is process-wide, so tests using a Case must not run in
// parallel with each other.
type Case struct {
	t    T
	keys []config.PathKey
	root string

	// Client is a verifying client, set when WithBaseURL is given.
	Client *Client
	// Dirs maps each overridden key to its temporary directory.
	Dirs map[config.PathKey]string

	baseURL  string
	created  []string
	override *config.Override
	active   bool
}

// CaseOption configures a Case.
type CaseOption func(*Case)

// WithPathOverrides replaces the default set of overridden path keys.
func WithPathOverrides(keys ...config.PathKey) CaseOption {
	return func(c *Case) {
		c.keys = append([]config.PathKey(nil), keys...)
	}
}

// WithTempRoot creates the temporary directories under root instead of
// the system temporary directory.
func WithTempRoot(root string) CaseOption {
	return func(c *Case) {
		c.root = root
	}
}

// WithBaseURL gives the case a verifying client for baseURL.
func WithBaseURL(baseURL string) CaseOption {
	return func(c *Case) {
		c.baseURL = baseURL
	}
}

// NewCase sets up a Case and registers its teardown with t.Cleanup.
func NewCase(t T, opts ...CaseOption) *Case {
	t.Helper()
	c := &Case{
		t:    t,
		keys: config.DefaultTempPathOverrides(),
	}
	for _, opt := range opts {
		opt(c)
	}
	t.Cleanup(c.Teardown)
	c.Setup()
	return c
}

// Setup creates a directory per path key and enables the override.
// NewCase calls it.
func (c *Case) Setup() {
	c.t.Helper()
	require.False(c.t, c.active, "case %s is already set up", c.t.Name())

	if c.baseURL != "" {
		c.Client = NewVerifyingClient(c.t, c.baseURL)
	}

	c.Dirs = make(map[config.PathKey]string, len(c.keys))
	for _, key := range c.keys {
		c.Dirs[key] = c.TempDir(slugify(string(key)))
	}

	values := make(map[config.PathKey]string, len(c.Dirs))
	for key, dir := range c.Dirs {
		values[key] = dir
	}
	c.override = config.NewOverride(values)
	require.NoError(c.t, c.override.Enable(), "enabling path overrides")
	c.active = true
}

// Teardown disables the override and removes every directory the case
// created. It is safe to call more than once.
func (c *Case) Teardown() {
	if c.override != nil && c.override.Enabled() {
		if err := c.override.Disable(); err != nil {
			c.t.Errorf("disabling path overrides: %v", err)
		}
	}
	for _, dir := range c.created {
		if err := os.RemoveAll(dir); err != nil {
			c.t.Errorf("removing %s: %v", dir, err)
			continue
		}
		UnregisterTempDir(dir)
	}
	c.created = nil
	c.active = false
}

// TempDir creates a directory named after label and the test. It is
// removed by Teardown.
func (c *Case) TempDir(label string) string {
	c.t.Helper()
	root := c.root
	if root == "" {
		root = os.TempDir()
	}
	dir, err := os.MkdirTemp(root, "tmp-"+label+"-"+slugify(c.t.Name())+"-")
	require.NoError(c.t, err, "creating temp dir %q", label)
	c.created = append(c.created, dir)
	RegisterTempDir(dir)
	return dir
}

// Path returns the directory overriding key.
func (c *Case) Path(key config.PathKey) string {
	c.t.Helper()
	dir, ok := c.Dirs[key]
	require.True(c.t, ok, "path %s is not overridden", key)
	return dir
}

var nonSlug = regexp.MustCompile(`[^a-z0-9_]+`)

// slugify lower-cases s and collapses everything but letters, digits and
// underscores into single hyphens. Leading and trailing hyphens are
// dropped. Subtest names contain slashes and spaces, so the result is what
// goes into temporary directory names.
func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
