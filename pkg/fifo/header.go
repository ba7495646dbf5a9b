package fifo

// Header word layout, bit-exact between both CPUs:
//
//  31 ... 28 |  27  |  26   |  25   | 24 ... 0
// -----------+------+-------+-------+------------------
//   Channel  | Addr | Immed | Extra | Payload
//
//  Value32:  Addr=0 Immed=1  Extra selects a trailing full word
//  Address:  Addr=1 Immed=0  Payload is the low 24 bits of the pointer
//  Data:     Addr=0 Immed=0  Payload is the byte length, payload words follow
//  Command:  Addr=1 Immed=1  Payload is a 24-bit command code
//
// Addr and Immed are reserved bits for ordinary traffic; both set at once is
// used exclusively for special commands (see EncodeCommand).

// NumChannels is the number of independent logical streams.
const NumChannels = 16

const (
	channelBits  = 4
	channelShift = 32 - channelBits
	channelMask  = (1 << channelBits) - 1

	addressBit   = 1 << 27
	immediateBit = 1 << 26
	extraBit     = 1 << 25
)

// Value32Mask covers the immediate values that fit in a single header word.
const Value32Mask = extraBit - 1

// MaxDataBytes is the maximum length of a data message.
const MaxDataBytes = 128

// Address messages carry the low 24 bits of a pointer; the high byte is
// restored to AddressBase on decode. Pointers outside that window are not
// representable on the wire.
const (
	AddressBase       = 0x02000000
	addressDataMask   = 0x00FFFFFF
	addressCompatMask = 0xFF000000
)

// CommandMask covers the code of a special command word.
const CommandMask = 0x00FFFFFF

// Reset handshake command codes.
const (
	// CmdResetPrimary asks the CPU holding native reboot capability to
	// reset the whole system. Sent by the secondary CPU, which can only
	// relay the request.
	CmdResetPrimary = 0x4000B
	// CmdResetSecondary asks the secondary CPU to reset.
	CmdResetSecondary = 0x4000C
)

// Channel identifies one of the 16 logical streams.
type Channel uint8

// IsValid checks the channel fits the 4-bit header field.
func (c Channel) IsValid() bool {
	return c < NumChannels
}

// Kind classifies a header word.
type Kind int

// Message kinds, resolved from the Addr/Immed reserved bits.
const (
	KindData Kind = iota
	KindValue32
	KindAddress
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindValue32:
		return "value32"
	case KindAddress:
		return "address"
	case KindCommand:
		return "command"
	}
	return "unknown"
}

// Header is a raw 32-bit header word.
type Header uint32

// Channel extracts the channel field.
func (h Header) Channel() Channel {
	return Channel((h >> channelShift) & channelMask)
}

// Kind resolves the message kind. Every 32-bit pattern resolves to exactly
// one kind; there is no malformed header.
func (h Header) Kind() Kind {
	switch {
	case h&addressBit != 0 && h&immediateBit != 0:
		return KindCommand
	case h&addressBit != 0:
		return KindAddress
	case h&immediateBit != 0:
		return KindValue32
	}
	return KindData
}

// NeedsExtra reports whether a value32 header is followed by a full word.
func (h Header) NeedsExtra() bool {
	return h&extraBit != 0
}

// Value32 extracts the small immediate from a single-word value32 message.
func (h Header) Value32() uint32 {
	return uint32(h) & Value32Mask
}

// Address rebuilds the pointer carried by an address message.
func (h Header) Address() uint32 {
	return (uint32(h) & addressDataMask) | AddressBase
}

// DataLength extracts the byte length from a data message header.
func (h Header) DataLength() int {
	return int(uint32(h) & Value32Mask)
}

// Command extracts the code from a special command word.
func (h Header) Command() uint32 {
	return uint32(h) & CommandMask
}

// EncodeValue32 encodes a 32-bit immediate. Values that fit in 25 bits use a
// single word; larger values set the extra bit and append the full value as a
// second word.
func EncodeValue32(ch Channel, value uint32) []uint32 {
	hdr := uint32(ch)<<channelShift | immediateBit
	if value&^uint32(Value32Mask) != 0 {
		return []uint32{hdr | extraBit, value}
	}
	return []uint32{hdr | value}
}

// EncodeAddress encodes a main-RAM pointer into a single word. Pointers
// outside the representable window are rejected before anything touches the
// transport.
func EncodeAddress(ch Channel, addr uint32) (uint32, error) {
	if addr&addressCompatMask != AddressBase {
		return 0, ErrAddressOutOfRange
	}
	return uint32(ch)<<channelShift | addressBit | (addr & addressDataMask), nil
}

// EncodeDataHeader encodes the header word of a data message of n bytes. The
// caller follows it with PackData(payload).
func EncodeDataHeader(ch Channel, n int) (uint32, error) {
	if n < 0 || n > MaxDataBytes {
		return 0, ErrPayloadTooLarge
	}
	return uint32(ch)<<channelShift | uint32(n), nil
}

// EncodeCommand encodes a special command word. Both reserved bits are set,
// an encoding ordinary sends can never produce, so a command is always
// distinguishable from in-band traffic. The channel field is unused.
func EncodeCommand(code uint32) uint32 {
	return addressBit | immediateBit | (code & CommandMask)
}

// DataWords returns the number of payload words following a data header of n
// bytes.
func DataWords(n int) int {
	return (n + 3) / 4
}

// PackData packs bytes into little-endian payload words. The trailing bytes
// of a partial final word are zero.
func PackData(b []byte) []uint32 {
	words := make([]uint32, DataWords(len(b)))
	for i, v := range b {
		words[i/4] |= uint32(v) << (uint(i%4) * 8)
	}
	return words
}

// UnpackData is the inverse of PackData for a message of n bytes.
func UnpackData(words []uint32, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(words[i/4] >> (uint(i%4) * 8))
	}
	return b
}
