package fifo

// Inbound is one reassembled inbound message.
type Inbound struct {
	Kind    Kind
	Channel Channel
	// Value holds the immediate value, the decoded address, or the
	// command code, depending on Kind.
	Value uint32
	// Data holds the payload of a data message.
	Data []byte
}

type decodeState int

const (
	stateHeader decodeState = iota // waiting for a header word
	stateExtra                     // waiting for the full word of a value32
	stateData                      // collecting payload words of a data message
)

// decoder reassembles messages from the inbound word stream. Multi-word
// messages arrive contiguously because the sender serializes them, so one
// word of state per step is enough.
type decoder struct {
	state   decodeState
	channel Channel
	length  int
	words   []uint32
}

// feed consumes one word. It returns a complete message when one ends on
// this word. A data header announcing more bytes than MaxDataBytes can only
// come from a corrupted transport and is reported as ErrMalformedHeader;
// there is no resynchronization from that.
func (d *decoder) feed(word uint32) (in Inbound, ok bool, err error) {
	switch d.state {
	case stateExtra:
		d.state = stateHeader
		return Inbound{Kind: KindValue32, Channel: d.channel, Value: word}, true, nil
	case stateData:
		d.words = append(d.words, word)
		if len(d.words) < DataWords(d.length) {
			return
		}
		d.state = stateHeader
		return Inbound{
			Kind:    KindData,
			Channel: d.channel,
			Data:    UnpackData(d.words, d.length),
		}, true, nil
	}

	h := Header(word)
	switch h.Kind() {
	case KindCommand:
		return Inbound{Kind: KindCommand, Value: h.Command()}, true, nil
	case KindAddress:
		return Inbound{Kind: KindAddress, Channel: h.Channel(), Value: h.Address()}, true, nil
	case KindValue32:
		if h.NeedsExtra() {
			d.state, d.channel = stateExtra, h.Channel()
			return
		}
		return Inbound{Kind: KindValue32, Channel: h.Channel(), Value: h.Value32()}, true, nil
	}

	n := h.DataLength()
	if n > MaxDataBytes {
		return Inbound{}, false, ErrMalformedHeader
	}
	if n == 0 {
		return Inbound{Kind: KindData, Channel: h.Channel(), Data: []byte{}}, true, nil
	}
	d.state, d.channel = stateData, h.Channel()
	d.length, d.words = n, make([]uint32, 0, DataWords(n))
	return
}
