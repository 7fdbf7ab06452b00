package notify

import (
	"context"
	"errors"
	"sync"
)

// Multi fans one notification out to several backends.
type Multi struct {
	backends []Notifier
}

// NewMulti creates a Multi over the given backends.
func NewMulti(backends ...Notifier) *Multi {
	return &Multi{backends: backends}
}

// Notify delivers to every backend concurrently. A failing backend never
// blocks the others; all failures are joined into the returned error.
func (m *Multi) Notify(ctx context.Context, n Notification) error {
	errs := make([]error, len(m.backends))

	var wg sync.WaitGroup
	for i, backend := range m.backends {
		wg.Add(1)
		go func(i int, backend Notifier) {
			defer wg.Done()
			errs[i] = backend.Notify(ctx, n)
		}(i, backend)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Name returns "multi"
func (m *Multi) Name() string {
	return "multi"
}
