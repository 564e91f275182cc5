// Package transport owns the serial byte channel and moves whole
// frames across it.
package transport

// The adapter side of the link is an FT232RL running at 3 Mbps with
// hardware flow control. One transport owns one port: the send path
// (sequence counter, encode, write, drain) runs under a single lock,
// receives are blocking reads with a per-call timeout. A timeout is a
// valid "nothing arrived" outcome, not an error.
