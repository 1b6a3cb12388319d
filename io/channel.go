// Package io provides the I/O channels and program image codec for the
// Universal Machine emulator.
//
// Channels move single bytes between the machine and the host. Tape
// wraps an io.Reader and io.Writer pair. Rom holds a program image as
// 32-bit words and converts it to and from its big-endian file format.
package io

// Channel defines the interface for byte I/O channels.
type Channel interface {
	// Receive returns the next input byte, or io.EOF at end of input.
	Receive() (value byte, err error)
	// Send writes a single byte to the channel.
	Send(value byte) error
}
