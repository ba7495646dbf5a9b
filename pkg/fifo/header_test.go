package fifo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValue32RoundTrip(t *testing.T) {
	values := []uint32{
		0, 1, 5, 0x1234, 0x01FFFFFE,
		0x01FFFFFF, // largest single-word immediate
		0x02000000, // smallest immediate needing an extra word
		0x3FFFFFFF, 0xFFFFFFFF,
	}
	for ch := Channel(0); ch < NumChannels; ch++ {
		for _, v := range values {
			words := EncodeValue32(ch, v)
			h := Header(words[0])
			require.Equal(t, ch, h.Channel())
			require.Equal(t, KindValue32, h.Kind())
			if v > Value32Mask {
				require.Len(t, words, 2)
				require.True(t, h.NeedsExtra())
				require.Equal(t, v, words[1])
			} else {
				require.Len(t, words, 1)
				require.False(t, h.NeedsExtra())
				require.Equal(t, v, h.Value32())
			}
		}
	}
}

func TestValue32ExtraBoundary(t *testing.T) {
	words := EncodeValue32(7, 0x3FFFFFFF)
	require.Len(t, words, 2)
	require.True(t, Header(words[0]).NeedsExtra())
	require.Equal(t, uint32(0x3FFFFFFF), words[1])

	words = EncodeValue32(7, 5)
	require.Len(t, words, 1)
	require.False(t, Header(words[0]).NeedsExtra())
	require.Equal(t, uint32(5), Header(words[0]).Value32())
}

func TestAddressRoundTrip(t *testing.T) {
	for _, addr := range []uint32{
		0x02000000, 0x02000004, 0x02ABCDEF, 0x02FFFFFF,
	} {
		word, err := EncodeAddress(9, addr)
		require.NoError(t, err)
		h := Header(word)
		require.Equal(t, Channel(9), h.Channel())
		require.Equal(t, KindAddress, h.Kind())
		require.Equal(t, addr, h.Address())
	}

	for _, addr := range []uint32{
		0, 0x01FFFFFF, 0x03000000, 0x08000000, 0xFFFFFFFF,
	} {
		_, err := EncodeAddress(9, addr)
		require.Equal(t, ErrAddressOutOfRange, err)
	}
}

func TestKindDiscrimination(t *testing.T) {
	testCases := []struct {
		name string
		word uint32
		kind Kind
	}{
		{"zero is data", 0x00000000, KindData},
		{"data with length", 0x30000005, KindData},
		{"immediate", 0x04000001, KindValue32},
		{"immediate with extra", 0x06000000, KindValue32},
		{"address", 0x08123456, KindAddress},
		{"both bits", 0x0C00000B, KindCommand},
		{"both bits any channel", 0xFC00000B, KindCommand},
		{"both bits with extra", 0x0E000000, KindCommand},
		{"all ones", 0xFFFFFFFF, KindCommand},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.kind, Header(tc.word).Kind())
		})
	}

	// Every word resolves to exactly one kind: the two reserved bits alone
	// decide, whatever the rest of the word holds.
	for _, rest := range []uint32{0x00000000, 0x12345678 &^ (3 << 26), 0xF1FFFFFF &^ (3 << 26)} {
		require.Equal(t, KindData, Header(rest).Kind())
		require.Equal(t, KindValue32, Header(rest|immediateBit).Kind())
		require.Equal(t, KindAddress, Header(rest|addressBit).Kind())
		require.Equal(t, KindCommand, Header(rest|addressBit|immediateBit).Kind())
	}
}

func TestDataHeader(t *testing.T) {
	word, err := EncodeDataHeader(3, 5)
	require.NoError(t, err)
	h := Header(word)
	require.Equal(t, Channel(3), h.Channel())
	require.Equal(t, KindData, h.Kind())
	require.Equal(t, 5, h.DataLength())

	_, err = EncodeDataHeader(3, MaxDataBytes)
	require.NoError(t, err)
	_, err = EncodeDataHeader(3, MaxDataBytes+1)
	require.Equal(t, ErrPayloadTooLarge, err)
	_, err = EncodeDataHeader(3, -1)
	require.Equal(t, ErrPayloadTooLarge, err)
}

func TestPackData(t *testing.T) {
	// Five bytes pack little-endian into two words; the trailing bytes of
	// the final word are zero.
	words := PackData([]byte{0x11, 0x22, 0x33, 0x44, 0x55})
	require.Equal(t, []uint32{0x44332211, 0x00000055}, words)

	require.Empty(t, PackData(nil))
	require.Equal(t, []uint32{0x000000AA}, PackData([]byte{0xAA}))

	for n := 1; n <= 9; n++ {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(0xA0 + i)
		}
		require.Equal(t, b, UnpackData(PackData(b), n))
	}
}

func TestEncodeCommand(t *testing.T) {
	word := EncodeCommand(CmdResetPrimary)
	h := Header(word)
	require.Equal(t, KindCommand, h.Kind())
	require.Equal(t, uint32(CmdResetPrimary), h.Command())

	// Codes are 24-bit; upper bits cannot leak into the reserved fields.
	require.Equal(t, uint32(0x123456), Header(EncodeCommand(0xFF123456)).Command())
}

func TestDataWords(t *testing.T) {
	testCases := []struct{ bytes, words int }{
		{0, 0}, {1, 1}, {3, 1}, {4, 1}, {5, 2}, {8, 2}, {128, 32},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.words, DataWords(tc.bytes))
	}
}
