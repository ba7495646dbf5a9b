package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunnerWait(t *testing.T) {
	boom := errors.New("boom")
	r := NewRunner()
	r.Go("ok", RunFunc(func(ctx context.Context) error { return nil }))
	r.Go("canceled", RunFunc(func(ctx context.Context) error { return context.Canceled }))
	r.Go("fail", RunFunc(func(ctx context.Context) error { return boom }))
	require.Equal(t, boom, r.Wait())
}

func TestRunErrors(t *testing.T) {
	var errs RunErrors
	errs.add(nil)
	require.NoError(t, errs.err())
	errs.add(errors.New("a"))
	require.EqualError(t, errs.err(), "a")
	errs.add(errors.New("b"))
	require.EqualError(t, errs.err(), "2 runners failed: a; b")
}

type chanCloser struct {
	ch     chan struct{}
	closed int
}

func (c *chanCloser) Close() error {
	c.closed++
	close(c.ch)
	return nil
}

func TestWithContextCloser(t *testing.T) {
	c := &chanCloser{ch: make(chan struct{})}
	require.NoError(t, WithContextCloser(context.Background(), c, func() error {
		return nil
	}))
	require.Equal(t, 1, c.closed)
}

func TestWithContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &chanCloser{ch: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		done <- WithContextCloser(ctx, c, func() error {
			// Models a blocking read that only fails once the wire closes.
			<-c.ch
			return errors.New("wire closed")
		})
	}()
	cancel()
	select {
	case err := <-done:
		require.Equal(t, context.Canceled, err)
		require.Equal(t, 1, c.closed)
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not unblock")
	}
}
