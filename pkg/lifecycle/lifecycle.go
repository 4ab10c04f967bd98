// Package lifecycle coordinates startup, background work and graceful
// shutdown of the service's subsystems.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrShutdownTimeout is returned when shutdown hooks outlive the timeout.
var ErrShutdownTimeout = errors.New("shutdown timed out")

// ReadinessChecker reports whether a subsystem is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

// Coordinator runs startup hooks, periodic tasks and cleanup hooks against
// a context that is cancelled when Shutdown begins.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup
	ready      atomic.Bool

	// cleanup is set before ctx is cancelled and read only after.
	cleanup context.Context
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:     ctx,
		cancel:  cancel,
		cleanup: context.Background(),
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn concurrently. Ready turns true once every startup hook
// has returned and WaitForStartup was called.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown runs fn concurrently and waits for it during Shutdown.
// fn must block on <-c.Context().Done() before releasing anything.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

// OnCleanup runs fn once shutdown begins. The context passed to fn expires
// with the shutdown timeout.
func (c *Coordinator) OnCleanup(fn func(ctx context.Context)) {
	c.shutdownWg.Go(func() {
		<-c.ctx.Done()
		fn(c.cleanup)
	})
}

// Every runs fn each interval until shutdown begins. A run in progress
// receives the cancelled context and is waited for.
func (c *Coordinator) Every(interval time.Duration, fn func(ctx context.Context)) {
	c.shutdownWg.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				fn(c.ctx)
			}
		}
	})
}

// Ready reports whether startup has completed.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// WaitForStartup blocks until all startup hooks have completed and sets the ready flag.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.ready.Store(true)
}

// Shutdown clears the ready flag, cancels the context and waits for every
// shutdown hook, cleanup hook and periodic task within timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.ready.Store(false)

	cleanup, cancelCleanup := context.WithTimeout(context.Background(), timeout)
	defer cancelCleanup()
	c.cleanup = cleanup
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-cleanup.Done():
		return fmt.Errorf("%w after %v", ErrShutdownTimeout, timeout)
	}
}
