package fifo

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/twinsoc/fifolink/pkg/transport"
)

// Value32Handler consumes an inbound immediate value.
type Value32Handler func(ch Channel, value uint32)

// AddressHandler consumes an inbound address.
type AddressHandler func(ch Channel, addr uint32)

// DataHandler consumes an inbound data message.
type DataHandler func(ch Channel, data []byte)

// CommandHandler consumes an inbound special command.
type CommandHandler func(code uint32)

// Tap observes every reassembled inbound message, after dispatch.
type Tap interface {
	InboundMessage(Inbound)
}

// TapFunc is func type of Tap.
type TapFunc func(Inbound)

// InboundMessage implements Tap.
func (f TapFunc) InboundMessage(in Inbound) {
	f(in)
}

// Link is one endpoint of the inter-processor channel. It encodes outbound
// messages onto the transport and reassembles inbound words, handing each
// message to a registered handler or staging it in the shared arena until
// the application drains it.
type Link struct {
	Port transport.Port
	Tap  Tap

	pool *Pool
	dec  decoder

	sendLock sync.Mutex

	handlerLock sync.RWMutex
	value32H    [NumChannels]Value32Handler
	addressH    [NumChannels]AddressHandler
	dataH       [NumChannels]DataHandler
	commandH    CommandHandler

	dropLock sync.Mutex
	dropped  int
}

// NewLink creates a Link over a transport port.
func NewLink(port transport.Port) *Link {
	return &Link{
		Port: port,
		pool: NewPool(),
	}
}

// SendValue32 sends a 32-bit immediate on a channel. One word on the wire,
// or two when the value exceeds 25 bits.
func (l *Link) SendValue32(ch Channel, value uint32) error {
	if !ch.IsValid() {
		return &ChannelError{Channel: ch}
	}
	return l.push(EncodeValue32(ch, value))
}

// SendAddress sends a main-RAM pointer on a channel.
func (l *Link) SendAddress(ch Channel, addr uint32) error {
	if !ch.IsValid() {
		return &ChannelError{Channel: ch}
	}
	word, err := EncodeAddress(ch, addr)
	if err != nil {
		return err
	}
	return l.push([]uint32{word})
}

// SendData sends up to MaxDataBytes bytes on a channel: a header word
// carrying the length, then the packed payload words.
func (l *Link) SendData(ch Channel, data []byte) error {
	if !ch.IsValid() {
		return &ChannelError{Channel: ch}
	}
	hdr, err := EncodeDataHeader(ch, len(data))
	if err != nil {
		return err
	}
	words := make([]uint32, 0, 1+DataWords(len(data)))
	words = append(words, hdr)
	words = append(words, PackData(data)...)
	return l.push(words)
}

// SendCommand sends a special command word. This bypasses the ordinary
// framing on purpose: the both-bits-set encoding is reserved so a command
// can never be mistaken for in-band traffic, and vice versa.
func (l *Link) SendCommand(code uint32) error {
	return l.push([]uint32{EncodeCommand(code)})
}

// push writes a word sequence to the transport. The lock keeps multi-word
// messages contiguous on the wire; the receiver relies on that. The push
// blocks while the transport is full.
func (l *Link) push(words []uint32) error {
	l.sendLock.Lock()
	defer l.sendLock.Unlock()
	for _, w := range words {
		if !l.Port.PushWord(w) {
			return ErrNotReady
		}
	}
	return nil
}

// HandleValue32 registers the immediate value handler for a channel. A nil
// handler reverts the channel to staging.
func (l *Link) HandleValue32(ch Channel, h Value32Handler) error {
	if !ch.IsValid() {
		return &ChannelError{Channel: ch}
	}
	l.handlerLock.Lock()
	l.value32H[ch] = h
	l.handlerLock.Unlock()
	return nil
}

// HandleAddress registers the address handler for a channel.
func (l *Link) HandleAddress(ch Channel, h AddressHandler) error {
	if !ch.IsValid() {
		return &ChannelError{Channel: ch}
	}
	l.handlerLock.Lock()
	l.addressH[ch] = h
	l.handlerLock.Unlock()
	return nil
}

// HandleData registers the data message handler for a channel.
func (l *Link) HandleData(ch Channel, h DataHandler) error {
	if !ch.IsValid() {
		return &ChannelError{Channel: ch}
	}
	l.handlerLock.Lock()
	l.dataH[ch] = h
	l.handlerLock.Unlock()
	return nil
}

// HandleCommand registers the special command handler. Commands are
// out-of-band and never staged; without a handler they are dropped.
func (l *Link) HandleCommand(h CommandHandler) {
	l.handlerLock.Lock()
	l.commandH = h
	l.handlerLock.Unlock()
}

// Value32 drains the oldest staged immediate value on a channel.
func (l *Link) Value32(ch Channel) (uint32, error) {
	return l.pool.Dequeue(ch)
}

// Address drains the oldest staged address on a channel.
func (l *Link) Address(ch Channel) (uint32, error) {
	return l.pool.Dequeue(ch)
}

// Data drains the oldest staged data message on a channel. Only one
// consumer may drain a given channel.
func (l *Link) Data(ch Channel) ([]byte, error) {
	hdr, err := l.pool.Dequeue(ch)
	if err != nil {
		return nil, err
	}
	n := Header(hdr).DataLength()
	words := make([]uint32, DataWords(n))
	for i := range words {
		// The receive loop stages a data message as a unit, so the
		// payload words are always behind the header.
		if words[i], err = l.pool.Dequeue(ch); err != nil {
			return nil, err
		}
	}
	return UnpackData(words, n), nil
}

// Pending returns the number of staged words on a channel.
func (l *Link) Pending(ch Channel) int {
	return l.pool.Len(ch)
}

// Dropped returns how many inbound messages were discarded because the
// staging arena was full.
func (l *Link) Dropped() int {
	l.dropLock.Lock()
	defer l.dropLock.Unlock()
	return l.dropped
}

// Run processes inbound words until the context is canceled or the
// transport goes down. A malformed inbound word stops the loop with
// ErrMalformedHeader.
func (l *Link) Run(ctx context.Context) error {
	wordCh := make(chan uint32)
	downCh := make(chan struct{})
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.popLoop(subCtx, wordCh, downCh)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-downCh:
			return nil
		case word := <-wordCh:
			in, ok, err := l.dec.feed(word)
			if err != nil {
				return err
			}
			if ok {
				l.deliver(in)
			}
		}
	}
}

func (l *Link) popLoop(ctx context.Context, wordCh chan uint32, downCh chan struct{}) {
	for {
		word, ok := l.Port.PopWord()
		if !ok {
			close(downCh)
			return
		}
		select {
		case wordCh <- word:
		case <-ctx.Done():
			return
		}
	}
}

func (l *Link) deliver(in Inbound) {
	if t := l.Tap; t != nil {
		// Observers run after dispatch so staged counts are already
		// consistent when the tap fires.
		defer t.InboundMessage(in)
	}

	l.handlerLock.RLock()
	value32H := l.value32H[in.Channel]
	addressH := l.addressH[in.Channel]
	dataH := l.dataH[in.Channel]
	commandH := l.commandH
	l.handlerLock.RUnlock()

	var err error
	switch in.Kind {
	case KindCommand:
		if commandH == nil {
			glog.Warningf("unhandled command %#x", in.Value)
			return
		}
		commandH(in.Value)
		return
	case KindValue32:
		if value32H != nil {
			value32H(in.Channel, in.Value)
			return
		}
		err = l.pool.Enqueue(in.Channel, in.Value)
	case KindAddress:
		if addressH != nil {
			addressH(in.Channel, in.Value)
			return
		}
		err = l.pool.Enqueue(in.Channel, in.Value)
	case KindData:
		if dataH != nil {
			dataH(in.Channel, in.Data)
			return
		}
		hdr, _ := EncodeDataHeader(in.Channel, len(in.Data))
		words := make([]uint32, 0, 1+DataWords(len(in.Data)))
		words = append(words, hdr)
		words = append(words, PackData(in.Data)...)
		err = l.pool.EnqueueAll(in.Channel, words)
	}
	if err != nil {
		l.dropLock.Lock()
		l.dropped++
		l.dropLock.Unlock()
		glog.Warningf("channel %d: inbound %s dropped: %v", in.Channel, in.Kind, err)
	}
}
