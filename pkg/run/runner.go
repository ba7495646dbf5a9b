// Package run provides the background runner plumbing shared by the link
// daemons and tools.
package run

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
)

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is func type of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Runner spawns named Runnables and collects their errors.
type Runner struct {
	Context context.Context

	count  int
	errCh  chan error
	exitCh chan struct{}
}

// NewRunner creates a runner with a background context.
func NewRunner() *Runner {
	return &Runner{
		Context: context.Background(),
		errCh:   make(chan error, 1),
		exitCh:  make(chan struct{}),
	}
}

// HandleSignals cancels the runner context on CtrlC or SIGTERM. A second
// signal makes Wait give up on runners that have not stopped.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	r.Context = ctx
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Go spawns one Runnable under the runner context.
func (r *Runner) Go(name string, runnable Runnable) *Runner {
	ctx := r.Context
	r.count++
	go func() {
		glog.V(4).Infof("runner[%s] started", name)
		r.errCh <- runnable.Run(ctx)
		glog.V(4).Infof("runner[%s] stopped", name)
	}()
	return r
}

// Wait blocks until every spawned Runnable stops, then reports their
// failures. Context cancellation does not count as a failure.
func (r *Runner) Wait() error {
	var errs RunErrors
	for i := 0; i < r.count; i++ {
		select {
		case <-r.exitCh:
			return errors.New("forced exit")
		case err := <-r.errCh:
			if err != context.Canceled {
				errs.add(err)
			}
		}
	}
	return errs.err()
}

// WithContext runs a func that doesn't accept a context. onCancel is called
// only when the context is canceled.
func WithContext(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		<-errCh
		return context.Canceled
	case err := <-errCh:
		return err
	}
}

// WithContextCloser ensures closer.Close is called either on cancel or when
// fn exits.
func WithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var closed bool
	err := WithContext(ctx, func() {
		closer.Close()
		closed = true
	}, fn)
	if !closed {
		closer.Close()
	}
	return err
}
