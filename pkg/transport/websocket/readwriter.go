package websocket

import (
	"encoding/binary"
	"io"

	"golang.org/x/net/websocket"
)

// ReadWriter implements transport.WordReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadWord implements transport.WordReader.
func (p *ReadWriter) ReadWord() (uint32, error) {
	var msg []byte
	if err := websocket.Message.Receive((*websocket.Conn)(p), &msg); err != nil {
		return 0, err
	}
	if len(msg) != 4 {
		return 0, io.ErrUnexpectedEOF
	}
	return binary.LittleEndian.Uint32(msg), nil
}

// WriteWord implements transport.WordWriter.
func (p *ReadWriter) WriteWord(word uint32) error {
	var msg [4]byte
	binary.LittleEndian.PutUint32(msg[:], word)
	return websocket.Message.Send((*websocket.Conn)(p), msg[:])
}
