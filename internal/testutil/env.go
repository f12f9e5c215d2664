package testutil

import (
	"os"
	"path/filepath"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ietf-tools/datatracker/internal/config"
)

// WriteTestFile writes content to a file under basePath, creating parent
// directories as needed.
func WriteTestFile(t T, basePath, relativePath string, content []byte) string {
	t.Helper()
	fullPath := filepath.Join(basePath, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, content, 0o644))
	return fullPath
}

// WriteSettingsFile marshals settings to a YAML file in dir and returns
// its path.
func WriteSettingsFile(t T, dir string, settings config.Settings) string {
	t.Helper()
	data, err := yaml.Marshal(settings)
	require.NoError(t, err)
	return WriteTestFile(t, dir, "settings.yaml", data)
}
