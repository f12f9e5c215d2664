package testutil

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// recorder is a T that records failures instead of reporting them.
// FailNow exits the goroutine, as it does for testing.T.
type recorder struct {
	mu       sync.Mutex
	name     string
	failed   bool
	aborted  bool
	errors   []string
	cleanups []func()
}

func (r *recorder) Errorf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = true
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recorder) FailNow() {
	r.mu.Lock()
	r.failed = true
	r.aborted = true
	r.mu.Unlock()
	runtime.Goexit()
}

func (r *recorder) Helper() {}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Cleanup(f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanups = append(r.cleanups, f)
}

func (r *recorder) Logf(string, ...any) {}

func (r *recorder) output() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.errors, "\n")
}

func (r *recorder) runCleanups() {
	for {
		r.mu.Lock()
		n := len(r.cleanups)
		if n == 0 {
			r.mu.Unlock()
			return
		}
		f := r.cleanups[n-1]
		r.cleanups = r.cleanups[:n-1]
		r.mu.Unlock()
		f()
	}
}

// runT runs fn on its own goroutine against a recorder named after t,
// then runs the registered cleanups.
func runT(t *testing.T, fn func(T)) *recorder {
	t.Helper()
	r := &recorder{name: t.Name()}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer r.runCleanups()
		fn(r)
	}()
	<-done
	return r
}

// captureDiagnostics redirects DiagnosticOutput for the rest of the test.
// Tests using it must not run in parallel.
func captureDiagnostics(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	saved := DiagnosticOutput
	DiagnosticOutput = &buf
	t.Cleanup(func() { DiagnosticOutput = saved })
	return &buf
}
