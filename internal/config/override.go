package config

import (
	"errors"
	"fmt"
	"sync"
)

var (
	currentMu sync.RWMutex
	current   = DefaultSettings()
)

// Current returns a copy of the process-wide settings.
func Current() Settings {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetCurrent replaces the process-wide settings.
func SetCurrent(s Settings) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = s
}

// CurrentPath returns the current value of a path setting.
func CurrentPath(key PathKey) string {
	currentMu.RLock()
	defer currentMu.RUnlock()
	v, _ := current.Paths.Get(key)
	return v
}

// Errors returned by Override.
var (
	ErrOverrideEnabled    = errors.New("override already enabled")
	ErrOverrideNotEnabled = errors.New("override not enabled")
)

// Override temporarily binds path settings to new values.
// Enable saves the values it replaces and Disable puts them back, so
// overrides may be nested as long as they are disabled in reverse order.
type Override struct {
	values  map[PathKey]string
	saved   map[PathKey]string
	enabled bool
}

// NewOverride returns an inactive override for the given values.
func NewOverride(values map[PathKey]string) *Override {
	v := make(map[PathKey]string, len(values))
	for k, val := range values {
		v[k] = val
	}
	return &Override{values: v}
}

// Enable activates the override.
func (o *Override) Enable() error {
	if o.enabled {
		return ErrOverrideEnabled
	}

	currentMu.Lock()
	defer currentMu.Unlock()

	saved := make(map[PathKey]string, len(o.values))
	for key := range o.values {
		old, ok := current.Paths.Get(key)
		if !ok {
			return fmt.Errorf("unknown path setting %q", key)
		}
		saved[key] = old
	}
	for key, v := range o.values {
		current.Paths.Set(key, v)
	}

	o.saved = saved
	o.enabled = true
	return nil
}

// Disable restores the values that were replaced by Enable.
func (o *Override) Disable() error {
	if !o.enabled {
		return ErrOverrideNotEnabled
	}

	currentMu.Lock()
	defer currentMu.Unlock()

	for key, v := range o.saved {
		current.Paths.Set(key, v)
	}
	o.saved = nil
	o.enabled = false
	return nil
}

// Enabled reports whether the override is active.
func (o *Override) Enabled() bool {
	return o.enabled
}
