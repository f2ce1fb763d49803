package includer

import (
	"context"
	"sync"
)

// Ready is a one-shot completion signal. It is closed once every placeholder
// discovered by an activation has been spliced or removed, and never reopens.
// Consumers can only observe it.
type Ready struct {
	done chan struct{}
	once sync.Once
}

func newReady() *Ready {
	return &Ready{done: make(chan struct{})}
}

func (r *Ready) complete() {
	r.once.Do(func() { close(r.done) })
}

// Done returns a channel that is closed when includes have resolved.
func (r *Ready) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until includes have resolved or ctx ends. Ending ctx only stops
// this caller from waiting; it does not abort any retrieval.
func (r *Ready) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Then schedules fn to run once, after includes have resolved.
func (r *Ready) Then(fn func()) {
	go func() {
		<-r.done
		fn()
	}()
}
