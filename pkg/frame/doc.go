// Package frame implements the UART wire frame of the FT232RL CAN
// adapter protocol.
package frame

// Every unit on the wire is a 6-byte header followed by up to 249
// payload bytes. The header carries a sync byte, the frame type
// (mirroring a USB endpoint), a wrapping sequence number, the payload
// length, a flags byte and a single-byte XOR checksum. The checksum
// folds the five header bytes that precede it together with the
// payload, so any single corrupted bit is detected.
//
// The stream has no frame terminator. Framing boundaries are the
// caller's responsibility: read the fixed header first, then exactly
// the declared payload length.
//
// Producer/consumer: TC275 firmware on one end, this library on the
// other.
