// Package fifo implements the word-oriented message protocol spoken between
// the two CPUs of a dual-processor system over a shared hardware FIFO.
package fifo

// The transport moves one 32-bit word at a time, in order, lossless, blocking
// when full or empty. This package multiplexes four message shapes onto that
// word stream across 16 logical channels:
//
//   - 32-bit immediate values (one word, or two when the value exceeds 25 bits)
//   - main-RAM addresses (one word, reduced-range pointer)
//   - data blocks of up to 128 bytes (header word plus payload words)
//   - special commands (one word, out-of-band, used by the reset handshake)
//
// Ordering is preserved within a channel. Nothing is implied across channels.
//
// Producer and consumer of inbound words run concurrently: the receive loop
// stages words into a fixed 256-slot arena shared by all channels, and the
// application drains them later or registers per-channel handlers.
