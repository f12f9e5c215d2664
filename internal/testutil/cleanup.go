package testutil

import (
	"errors"
	"os"
	"sort"
	"sync"
)

// createdTempDirs records every directory a Case has created and not yet
// removed. Anything left at the end of a run leaked.
var (
	createdTempDirs = make(map[string]bool)
	tempDirsMu      sync.Mutex
)

// RegisterTempDir records a directory for cleanup.
func RegisterTempDir(dir string) {
	tempDirsMu.Lock()
	defer tempDirsMu.Unlock()
	createdTempDirs[dir] = true
}

// UnregisterTempDir removes a directory from the registry after it has
// been deleted.
func UnregisterTempDir(dir string) {
	tempDirsMu.Lock()
	defer tempDirsMu.Unlock()
	delete(createdTempDirs, dir)
}

// RegisteredTempDirs returns the directories not yet cleaned up, sorted.
func RegisteredTempDirs() []string {
	tempDirsMu.Lock()
	defer tempDirsMu.Unlock()
	dirs := make([]string, 0, len(createdTempDirs))
	for dir := range createdTempDirs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// CleanupAllTempDirs deletes every registered directory. Successfully
// deleted directories are removed from the registry.
func CleanupAllTempDirs() error {
	var errs []error
	for _, dir := range RegisteredTempDirs() {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, err)
			continue
		}
		UnregisterTempDir(dir)
	}
	return errors.Join(errs...)
}
