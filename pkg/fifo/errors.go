package fifo

import (
	"errors"
	"fmt"
)

var (
	// ErrAddressOutOfRange indicates a pointer outside the window an
	// address message can carry.
	ErrAddressOutOfRange = errors.New("address out of range")
	// ErrPayloadTooLarge indicates a data message longer than MaxDataBytes.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrBufferFull indicates the staging arena is exhausted. The caller
	// retries after the consumer drains, or drops the message; nothing is
	// retried here.
	ErrBufferFull = errors.New("buffer full")
	// ErrEmpty indicates nothing is staged on the channel. It is the
	// normal "nothing ready" signal, not a failure.
	ErrEmpty = errors.New("empty")
	// ErrNotReady indicates the transport refused a word, which means the
	// link is down. The transport is assumed reliable; there is no retry
	// layer above it.
	ErrNotReady = errors.New("not ready")
	// ErrMalformedHeader indicates an inbound word that cannot belong to
	// any message, e.g. a data header longer than MaxDataBytes. With a
	// reliable transport this never happens; when it does, the word
	// stream is desynchronized beyond recovery.
	ErrMalformedHeader = errors.New("malformed header")
)

// ChannelError wraps an invalid channel id.
type ChannelError struct {
	Channel Channel
}

// Error implements error.
func (e *ChannelError) Error() string {
	return fmt.Sprintf("invalid channel %d", e.Channel)
}
