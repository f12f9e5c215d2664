package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/datatracker/internal/config"
)

func currentPaths() map[config.PathKey]string {
	out := make(map[config.PathKey]string)
	for _, key := range config.PathKeys() {
		out[key] = config.CurrentPath(key)
	}
	return out
}

func assertGone(t *testing.T, dirs map[config.PathKey]string) {
	t.Helper()
	for key, dir := range dirs {
		_, err := os.Stat(dir)
		assert.True(t, os.IsNotExist(err), "%s dir %s still exists", key, dir)
		assert.NotContains(t, RegisteredTempDirs(), dir)
	}
}

func TestCase_OverridesPaths(t *testing.T) {
	root := t.TempDir()
	before := currentPaths()

	c := NewCase(t, WithTempRoot(root))

	require.Len(t, c.Dirs, len(config.DefaultTempPathOverrides()))
	seen := make(map[string]bool)
	for _, key := range config.DefaultTempPathOverrides() {
		dir := c.Path(key)
		assert.Equal(t, dir, config.CurrentPath(key))
		assert.Equal(t, root, filepath.Dir(dir))
		assert.True(t, strings.HasPrefix(filepath.Base(dir), "tmp-"+slugify(string(key))+"-testcase_overridespaths-"), dir)
		assert.DirExists(t, dir)
		assert.Contains(t, RegisteredTempDirs(), dir)
		assert.False(t, seen[dir], "directories are distinct")
		seen[dir] = true
	}

	dirs := c.Dirs
	c.Teardown()
	assertGone(t, dirs)
	assert.Equal(t, before, currentPaths())

	c.Teardown()
	assert.Equal(t, before, currentPaths(), "teardown is idempotent")
}

func TestCase_TeardownAfterPassingTest(t *testing.T) {
	root := t.TempDir()
	before := currentPaths()

	var dirs map[config.PathKey]string
	r := runT(t, func(rt T) {
		c := NewCase(rt, WithTempRoot(root))
		dirs = c.Dirs
		for _, dir := range dirs {
			assert.DirExists(rt, dir)
		}
		WriteTestFile(rt, c.Path(config.RFCPath), "rfc9110.txt", []byte(SampleRFCText))
	})

	assert.False(t, r.failed, r.output())
	require.NotEmpty(t, dirs)
	assertGone(t, dirs)
	assert.Equal(t, before, currentPaths())
}

func TestCase_TeardownAfterFailingTest(t *testing.T) {
	root := t.TempDir()
	before := currentPaths()

	var dirs map[config.PathKey]string
	r := runT(t, func(rt T) {
		c := NewCase(rt, WithTempRoot(root))
		dirs = c.Dirs
		require.Fail(rt, "the test body fails")
	})

	assert.True(t, r.aborted)
	require.NotEmpty(t, dirs)
	assertGone(t, dirs)
	assert.Equal(t, before, currentPaths())
}

func TestCase_WithPathOverrides(t *testing.T) {
	before := currentPaths()

	c := NewCase(t, WithTempRoot(t.TempDir()), WithPathOverrides(config.RFCPath))

	assert.Len(t, c.Dirs, 1)
	assert.Equal(t, c.Path(config.RFCPath), config.CurrentPath(config.RFCPath))
	assert.Equal(t, before[config.InternetDraftPath], config.CurrentPath(config.InternetDraftPath))

	r := runT(t, func(rt T) {
		other := &Case{t: rt, Dirs: c.Dirs}
		other.Path(config.InternetDraftPath)
	})
	assert.True(t, r.aborted)
	assert.Contains(t, r.output(), "is not overridden")
}

func TestCase_TempDir(t *testing.T) {
	root := t.TempDir()
	var extra string
	r := runT(t, func(rt T) {
		c := NewCase(rt, WithTempRoot(root), WithPathOverrides())
		extra = c.TempDir("scratch")
		assert.DirExists(rt, extra)
	})
	assert.False(t, r.failed, r.output())
	assert.True(t, strings.HasPrefix(filepath.Base(extra), "tmp-scratch-"), extra)
	_, err := os.Stat(extra)
	assert.True(t, os.IsNotExist(err))
}

func TestCase_SetupTwiceFails(t *testing.T) {
	root := t.TempDir()
	before := currentPaths()

	r := runT(t, func(rt T) {
		c := NewCase(rt, WithTempRoot(root))
		c.Setup()
	})
	assert.True(t, r.aborted)
	assert.Contains(t, r.output(), "already set up")
	assert.Equal(t, before, currentPaths())
}

func TestCase_WithBaseURL(t *testing.T) {
	c := NewCase(t, WithTempRoot(t.TempDir()), WithBaseURL("http://127.0.0.1:1"))
	require.NotNil(t, c.Client)
	assert.True(t, c.Client.verify)

	plain := NewCase(t, WithTempRoot(t.TempDir()), WithPathOverrides(config.RFCPath))
	assert.Nil(t, plain.Client)
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"RFC_PATH":                "rfc_path",
		"TestCase/sub test #1":    "testcase-sub-test-1",
		"--Already--Hyphenated--": "already-hyphenated",
		"ünïcode":                 "n-code",
	}
	for in, want := range tests {
		assert.Equal(t, want, slugify(in), in)
	}
}
