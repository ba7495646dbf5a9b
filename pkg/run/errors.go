package run

import (
	"fmt"
	"strings"
)

// RunErrors collects the failures reported by a Runner's runnables.
type RunErrors struct {
	errs []error
}

// add records a failure. nil is skipped.
func (e *RunErrors) add(err error) {
	if err != nil {
		e.errs = append(e.errs, err)
	}
}

// err flattens the collection: nil when nothing failed, the sole failure
// when there is exactly one, the collection itself otherwise.
func (e *RunErrors) err() error {
	switch len(e.errs) {
	case 0:
		return nil
	case 1:
		return e.errs[0]
	}
	return e
}

// Error implements error.
func (e *RunErrors) Error() string {
	msgs := make([]string, len(e.errs))
	for i, err := range e.errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d runners failed: %s", len(e.errs), strings.Join(msgs, "; "))
}
