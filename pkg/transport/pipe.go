package transport

import "sync"

// HardwareDepth is the capacity of the hardware FIFO in words, one per
// direction. The in-memory pipe models the same depth.
const HardwareDepth = 16

// Pipe is one endpoint of an in-memory word channel pair shaped like the
// hardware FIFO: HardwareDepth words deep each way, ordered, lossless,
// blocking when full or empty.
type Pipe struct {
	send chan<- uint32
	recv <-chan uint32

	closeOnce sync.Once
	closed    chan struct{}
	peer      *Pipe
}

// NewPair creates two cross-connected pipe endpoints.
func NewPair() (*Pipe, *Pipe) {
	ab := make(chan uint32, HardwareDepth)
	ba := make(chan uint32, HardwareDepth)
	a := &Pipe{send: ab, recv: ba, closed: make(chan struct{})}
	b := &Pipe{send: ba, recv: ab, closed: make(chan struct{})}
	a.peer, b.peer = b, a
	return a, b
}

// PushWord implements Port. It blocks while the outgoing FIFO is full.
func (p *Pipe) PushWord(word uint32) bool {
	select {
	case <-p.closed:
		return false
	case <-p.peer.closed:
		return false
	case p.send <- word:
		return true
	}
}

// PopWord implements Port. It blocks while the incoming FIFO is empty.
// Words already in flight when either end closes are still drained.
func (p *Pipe) PopWord() (uint32, bool) {
	select {
	case word := <-p.recv:
		return word, true
	case <-p.closed:
	case <-p.peer.closed:
	}
	select {
	case word := <-p.recv:
		return word, true
	default:
		return 0, false
	}
}

// Close shuts down this endpoint. Both ends observe the transport as down.
func (p *Pipe) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
	})
	return nil
}
