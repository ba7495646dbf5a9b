// Package transport carries 32-bit words between the two link endpoints.
package transport

import "github.com/golang/glog"

// Port moves single words over the underlying channel. The physical
// register-level driver is an external collaborator; implementations here
// stand in for it over memory, streams or sockets.
type Port interface {
	// PushWord offers a word, blocking until the channel accepts it.
	// It returns false when the transport is down.
	PushWord(word uint32) bool
	// PopWord takes the next word, blocking until one arrives.
	// It returns false when the transport is down.
	PopWord() (uint32, bool)
}

// WordReader reads single words.
type WordReader interface {
	ReadWord() (uint32, error)
}

// WordWriter writes single words.
type WordWriter interface {
	WriteWord(uint32) error
}

// WordReadWriter reads/writes single words.
type WordReadWriter interface {
	WordReader
	WordWriter
}

type rwPort struct {
	rw WordReadWriter
}

// NewPort adapts a WordReadWriter into a Port. Read/write errors mean the
// transport is down; they are logged and surface as the false return.
func NewPort(rw WordReadWriter) Port {
	return &rwPort{rw: rw}
}

func (p *rwPort) PushWord(word uint32) bool {
	if err := p.rw.WriteWord(word); err != nil {
		glog.V(1).Infof("push failed: %v", err)
		return false
	}
	return true
}

func (p *rwPort) PopWord() (uint32, bool) {
	word, err := p.rw.ReadWord()
	if err != nil {
		glog.V(1).Infof("pop failed: %v", err)
		return 0, false
	}
	return word, true
}
