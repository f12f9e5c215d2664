package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/datatracker/internal/auth"
	"github.com/ietf-tools/datatracker/internal/config"
	"github.com/ietf-tools/datatracker/internal/store"
	"github.com/ietf-tools/datatracker/internal/testutil"
)

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "createuser", "checkhtml"} {
		assert.True(t, names[want], "missing command %s", want)
	}
	assert.Equal(t, "datatracker", rootCmd.Use)
}

func TestCommandArgs(t *testing.T) {
	assert.Error(t, createUserCmd.Args(createUserCmd, nil))
	assert.Error(t, createUserCmd.Args(createUserCmd, []string{"a", "b"}))
	assert.NoError(t, createUserCmd.Args(createUserCmd, []string{"a"}))

	assert.Error(t, checkHTMLCmd.Args(checkHTMLCmd, nil))
	assert.NoError(t, checkHTMLCmd.Args(checkHTMLCmd, []string{"a.html", "b.html"}))

	assert.Error(t, serveCmd.Args(serveCmd, []string{"extra"}))
}

func writeSettings(t *testing.T) (string, config.Settings) {
	t.Helper()
	dir := t.TempDir()
	settings := config.DefaultSettings()
	settings.Database.Path = filepath.Join(dir, "datatracker.db")
	settings.Mail.Backend = config.MailBackendOutbox
	settings.Server.Port = 8123
	settings.LogLevel = "error"
	return testutil.WriteSettingsFile(t, dir, settings), settings
}

func TestCreateUser(t *testing.T) {
	path, settings := writeSettings(t)

	saved := promptPassword
	defer func() { promptPassword = saved }()
	promptPassword = func(username string) (string, error) {
		return username + "+password", nil
	}

	createUserConfig = path
	createUserEmail = "secretary@ietf.org"
	createUserName = "IETF Secretariat"
	createUserStaff = true
	defer func() {
		createUserConfig, createUserEmail, createUserName, createUserStaff = "", "", "", false
	}()

	var out bytes.Buffer
	createUserCmd.SetOut(&out)
	defer createUserCmd.SetOut(nil)

	require.NoError(t, runCreateUser(createUserCmd, []string{"secretary"}))
	assert.Contains(t, out.String(), "Created staff user secretary")

	err := runCreateUser(createUserCmd, []string{"secretary"})
	assert.ErrorContains(t, err, `user "secretary" already exists`)

	ctx := context.Background()
	st, err := store.Open(ctx, settings.Database.Path)
	require.NoError(t, err)
	defer st.Close()

	user, err := st.UserByUsername(ctx, "secretary")
	require.NoError(t, err)
	assert.Equal(t, "secretary@ietf.org", user.Email)
	assert.True(t, user.IsStaff)
	ok, err := auth.VerifyPassword("secretary+password", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateUser_PromptError(t *testing.T) {
	path, _ := writeSettings(t)

	saved := promptPassword
	defer func() { promptPassword = saved }()
	promptPassword = func(string) (string, error) { return "", auth.ErrPasswordMismatch }

	createUserConfig = path
	defer func() { createUserConfig = "" }()

	err := runCreateUser(createUserCmd, []string{"someone"})
	assert.ErrorIs(t, err, auth.ErrPasswordMismatch)
}

func TestCheckHTML(t *testing.T) {
	dir := t.TempDir()
	clean := testutil.WriteTestFile(t, dir, "clean.html", []byte(
		"<!DOCTYPE html>\n<html lang=\"en\"><head><title>ok</title></head><body><p>ok</p></body></html>\n"))
	warn := testutil.WriteTestFile(t, dir, "warn.html", []byte(
		"<!DOCTYPE html>\n<html lang=\"en\"><head><title>w</title></head><body><p></p></body></html>\n"))
	broken := testutil.WriteTestFile(t, dir, "broken.html", []byte(
		"<!DOCTYPE html>\n<html lang=\"en\"><head><title>b</title></head><body>\n<blink>x</blink></body></html>\n"))

	run := func(errorsOnly bool, files ...string) (string, error) {
		var out bytes.Buffer
		checkHTMLCmd.SetOut(&out)
		defer checkHTMLCmd.SetOut(nil)
		checkHTMLErrorsOnly = errorsOnly
		defer func() { checkHTMLErrorsOnly = false }()
		err := runCheckHTML(checkHTMLCmd, files)
		return out.String(), err
	}

	out, err := run(false, clean)
	assert.NoError(t, err)
	assert.Empty(t, out)

	out, err = run(false, clean, warn)
	assert.ErrorContains(t, err, "found 1 issue(s) in 2 file(s)")
	assert.Contains(t, out, warn+": line 2 column ")
	assert.Contains(t, out, "Warning: trimming empty <p>")

	out, err = run(true, warn)
	assert.NoError(t, err)
	assert.Empty(t, out)

	out, err = run(true, broken)
	assert.Error(t, err)
	assert.Contains(t, out, broken+": line 3 column 1 - Error: <blink> is not recognized!")

	_, err = run(false, filepath.Join(dir, "missing.html"))
	assert.ErrorContains(t, err, "failed to read")
}

func TestPrepareServer(t *testing.T) {
	path, settings := writeSettings(t)
	saved := config.Current()
	defer config.SetCurrent(saved)

	srv, st, err := prepareServer(context.Background(), path, -1)
	require.NoError(t, err)
	defer st.Close()
	assert.Equal(t, 8123, srv.Port())
	assert.Equal(t, settings.Database.Path, config.Current().Database.Path)
	require.NoError(t, st.Ping(context.Background()))

	srv, st2, err := prepareServer(context.Background(), path, 0)
	require.NoError(t, err)
	defer st2.Close()
	assert.Equal(t, 0, srv.Port())
}

func TestPrepareServer_Errors(t *testing.T) {
	saved := config.Current()
	defer config.SetCurrent(saved)

	_, _, err := prepareServer(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), -1)
	assert.ErrorContains(t, err, "settings file not found")

	dir := t.TempDir()
	settings := config.DefaultSettings()
	settings.Database.Path = filepath.Join(dir, "db")
	settings.LogLevel = "chatty"
	path := testutil.WriteSettingsFile(t, dir, settings)
	_, _, err = prepareServer(context.Background(), path, -1)
	assert.True(t, config.IsValidationError(err))
}
