package favorites

import (
	"context"
	"sync"
)

// Flush reports the outcome of one write of the collection to storage.
type Flush struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newFlush() *Flush {
	return &Flush{done: make(chan struct{})}
}

func (f *Flush) finish(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the write has completed.
func (f *Flush) Done() <-chan struct{} {
	return f.done
}

// Err returns the write error. It is only meaningful after Done is closed.
func (f *Flush) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Wait blocks until the write completes or ctx ends.
func (f *Flush) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Change describes the effect of a mutation.
type Change struct {
	// Added is true when Toggle left the item in the collection.
	Added bool
	// Removed counts the items taken out of the collection.
	Removed int
	// Flush tracks the write-through to storage. Nil when nothing was written.
	Flush *Flush
}

// Wait blocks until the mutation's write has completed and returns its error.
func (c Change) Wait(ctx context.Context) error {
	if c.Flush == nil {
		return nil
	}
	return c.Flush.Wait(ctx)
}
