package kvstore

import (
	"context"
	"sync"
)

// UpdateFunc computes the next value of a key from its current value.
// Returning write=false leaves the stored value untouched.
type UpdateFunc func(current []byte, ok bool) (next []byte, write bool, err error)

type command struct {
	ctx   context.Context
	run   func(ctx context.Context) error
	reply chan error
}

// Actor serializes every operation on a backend Store through one
// goroutine.  Update runs its read, the caller's function and the write as a
// single command, so two updates of the same key never interleave within a
// process.  Other processes sharing the backend are not coordinated.
type Actor struct {
	backend Store
	cmds    chan command
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewActor starts the goroutine that owns backend.  queue sets the command
// buffer size; values below 1 use an unbuffered queue.
func NewActor(backend Store, queue int) *Actor {
	if queue < 0 {
		queue = 0
	}
	a := &Actor{
		backend: backend,
		cmds:    make(chan command, queue),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Actor) loop() {
	defer close(a.stopped)
	for {
		select {
		case cmd := <-a.cmds:
			// the caller may have given up while the command sat in the queue
			if err := cmd.ctx.Err(); err != nil {
				cmd.reply <- err
				continue
			}
			cmd.reply <- cmd.run(cmd.ctx)
		case <-a.done:
			// drain whatever was queued before Close so no caller blocks forever
			for {
				select {
				case cmd := <-a.cmds:
					cmd.reply <- ErrClosed
				default:
					return
				}
			}
		}
	}
}

// submit enqueues fn and waits for its result.  The reply channel is
// buffered so an abandoned caller never blocks the actor.
func (a *Actor) submit(ctx context.Context, fn func(ctx context.Context) error) error {
	cmd := command{ctx: ctx, run: fn, reply: make(chan error, 1)}
	select {
	case <-a.done:
		return ErrClosed
	default:
	}
	select {
	case a.cmds <- cmd:
	case <-a.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-a.stopped:
		select {
		case err := <-cmd.reply:
			return err
		default:
			return ErrClosed
		}
	}
}

// Get implements Store.
func (a *Actor) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		ok    bool
	)
	err := a.submit(ctx, func(ctx context.Context) error {
		var err error
		value, ok, err = a.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return value, ok, nil
}

// Set implements Store.
func (a *Actor) Set(ctx context.Context, key string, value []byte) error {
	return a.submit(ctx, func(ctx context.Context) error {
		return a.backend.Set(ctx, key, value)
	})
}

// Delete implements Store.
func (a *Actor) Delete(ctx context.Context, key string) error {
	return a.submit(ctx, func(ctx context.Context) error {
		return a.backend.Delete(ctx, key)
	})
}

// Update performs an atomic (per process) read-modify-write of key.
func (a *Actor) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return a.submit(ctx, func(ctx context.Context) error {
		cur, ok, err := a.backend.Get(ctx, key)
		if err != nil {
			return err
		}
		next, write, err := fn(cur, ok)
		if err != nil || !write {
			return err
		}
		return a.backend.Set(ctx, key, next)
	})
}

// Close stops the actor goroutine.  Pending and future commands fail with
// ErrClosed.  The backend itself is not closed.
func (a *Actor) Close() {
	a.once.Do(func() { close(a.done) })
	<-a.stopped
}
