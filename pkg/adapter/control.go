package adapter

import (
	"encoding/binary"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cankit/ftcan/pkg/frame"
)

// USB-style request types and request codes understood by the
// firmware.
const (
	reqTypeOut byte = 0x40
	reqTypeIn  byte = 0xC0

	cmdReset         byte = 0xC0
	cmdGetVersion    byte = 0xD0
	cmdSetSafetyMode byte = 0xDC
	cmdSetCANSpeed   byte = 0xDD
	cmdGetHealth     byte = 0xDE
	cmdHeartbeat     byte = 0xF1
)

// ControlTimeout bounds the wait for a control response.
const ControlTimeout = 5 * time.Second

const controlHeadSize = 8

// controlTransfer performs one emulated USB control exchange. The
// request is packed as requestType(1) request(1) value(2 LE)
// index(2 LE) dataLen(2 LE) data, wrapped in a CONTROL frame, and the
// payload of the next CONTROL frame is returned. ok is false on send
// failure, timeout or a response of the wrong type; a present but
// empty response payload is ok.
func (s *Session) controlTransfer(requestType, request byte, value, index uint16, data []byte) (payload []byte, ok bool) {
	tr := s.transport()
	if tr == nil {
		return nil, false
	}
	req := make([]byte, controlHeadSize+len(data))
	req[0] = requestType
	req[1] = request
	binary.LittleEndian.PutUint16(req[2:], value)
	binary.LittleEndian.PutUint16(req[4:], index)
	binary.LittleEndian.PutUint16(req[6:], uint16(len(data)))
	copy(req[controlHeadSize:], data)

	s.exchange.Lock()
	defer s.exchange.Unlock()
	if !tr.SendFrame(&frame.Frame{Type: frame.TypeControl, Payload: req}) {
		return nil, false
	}
	resp := tr.ReceiveFrame(ControlTimeout)
	if resp == nil || resp.Type != frame.TypeControl {
		return nil, false
	}
	return resp.Payload, true
}

// Reset reinitializes the firmware side of the link. Any response of
// the right type counts as success.
func (s *Session) Reset() bool {
	_, ok := s.controlTransfer(reqTypeOut, cmdReset, 0, 0, nil)
	return ok
}

// Version returns the firmware version string. It returns "Error"
// when no response payload arrived and "Unknown" when the payload is
// not valid UTF-8.
func (s *Session) Version() string {
	data, ok := s.controlTransfer(reqTypeIn, cmdGetVersion, 0, 0, nil)
	if !ok || len(data) == 0 {
		return "Error"
	}
	if !utf8.Valid(data) {
		return "Unknown"
	}
	return strings.Trim(string(data), "\x00")
}

// Nominal electricals reported while the firmware health payload does
// not carry measurements yet.
const (
	NominalVoltage = 12.0
	NominalCurrent = 0.5
)

const healthMinSize = 12

// Health is the adapter health report. Only Uptime is parsed from the
// wire today; Voltage and Current are the nominal placeholders above
// until the firmware reports measurements, and Nominal marks them as
// such so callers know which fields are authoritative.
type Health struct {
	Voltage float64
	Current float64
	Uptime  uint32 // seconds, from the first four response bytes
	Nominal bool   // Voltage/Current are placeholders
}

// Health queries the firmware health report. The zero Health is
// returned when the response is missing or too short.
func (s *Session) Health() Health {
	data, ok := s.controlTransfer(reqTypeIn, cmdGetHealth, 0, 0, nil)
	if !ok || len(data) < healthMinSize {
		return Health{}
	}
	return Health{
		Voltage: NominalVoltage,
		Current: NominalCurrent,
		Uptime:  binary.LittleEndian.Uint32(data[:4]),
		Nominal: true,
	}
}

// SetSafetyMode forwards a safety policy code and parameter to the
// firmware.
func (s *Session) SetSafetyMode(mode SafetyMode, param uint16) bool {
	_, ok := s.controlTransfer(reqTypeOut, cmdSetSafetyMode, uint16(mode), param, nil)
	return ok
}

// SetCANSpeed configures one bus to the given bitrate in kbps. Call
// it once per bus at setup; the firmware holds the state.
func (s *Session) SetCANSpeed(bus uint8, kbps uint16) bool {
	_, ok := s.controlTransfer(reqTypeOut, cmdSetCANSpeed, uint16(bus), kbps, nil)
	return ok
}

// Heartbeat tells the firmware the host is still alive.
func (s *Session) Heartbeat() bool {
	_, ok := s.controlTransfer(reqTypeOut, cmdHeartbeat, 0, 0, nil)
	return ok
}
