package testutil

import (
	"context"
	"time"
)

// Default timeouts for store and request operations in tests.
const (
	DefaultStoreTimeout = 10 * time.Second

	// DefaultTestBuffer is subtracted from the test deadline so cleanup
	// still runs before the test times out.
	DefaultTestBuffer = 2 * time.Second
)

// ContextWithTestDeadline returns a context that ends before the test's
// deadline, or after fallback if the test has none. Any T with a
// testing.T-style Deadline method is honored.
func ContextWithTestDeadline(t T, fallback time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	if d, ok := t.(interface{ Deadline() (time.Time, bool) }); ok {
		if deadline, ok := d.Deadline(); ok {
			adjusted := deadline.Add(-DefaultTestBuffer)
			if time.Until(adjusted) > 0 {
				return context.WithDeadline(context.Background(), adjusted)
			}
		}
	}
	return context.WithTimeout(context.Background(), fallback)
}

// StoreContext returns a context for store calls made by helpers.
func StoreContext(t T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, DefaultStoreTimeout)
}
