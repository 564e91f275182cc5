// Package adapter presents a USB-CAN-adapter style session on top of
// the UART frame transport.
package adapter

// A Session is the only surface callers touch. Control operations
// (reset, version, health, safety mode, bus speed, heartbeat) are
// emulated USB control transfers: one CONTROL frame out, one CONTROL
// frame back. Bulk operations move batches of CAN messages in
// BULK_IN/BULK_OUT frames.
//
// Responses are matched to requests by frame type only; the firmware
// does not echo sequence numbers. The session therefore serializes
// exchanges internally, one conversation at a time, which makes it
// safe to call from multiple goroutines.
