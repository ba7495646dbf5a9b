package stream

import (
	"encoding/binary"
	"io"
)

// ReadWriter implements transport.WordReadWriter.
// Each word travels as 4 bytes, little-endian, matching the in-memory byte
// order of the wire format.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadWord implements transport.WordReader.
func (p *ReadWriter) ReadWord() (uint32, error) {
	var word uint32
	err := binary.Read(p, binary.LittleEndian, &word)
	return word, err
}

// WriteWord implements transport.WordWriter.
func (p *ReadWriter) WriteWord(word uint32) error {
	return binary.Write(p, binary.LittleEndian, word)
}
