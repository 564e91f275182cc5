package adapter

import (
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/cankit/ftcan/pkg/can"
	"github.com/cankit/ftcan/pkg/frame"
	"github.com/cankit/ftcan/pkg/transport"
)

// State tracks the session lifecycle. Closed is terminal.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	}
	return "invalid"
}

var (
	// ErrConnected indicates Connect was called on a session that
	// already has a transport.
	ErrConnected = errors.New("already connected")
	// ErrClosed indicates the session was closed and cannot be reused.
	ErrClosed = errors.New("session closed")
)

// BulkTimeout bounds the wait for a bulk receive response.
const BulkTimeout = 2 * time.Second

// Session is the adapter façade. The zero value is not usable; create
// one with New.
type Session struct {
	// Packer is the bulk packing policy. Adjust before first use.
	Packer can.Packer

	lock     sync.Mutex // guards state and tr
	exchange sync.Mutex // one request/response conversation at a time
	state    State
	tr       *transport.Transport
}

// New returns an idle, disconnected session.
func New() *Session {
	return &Session{}
}

// Connect opens the serial device and resets the firmware link. A
// reset timeout is logged but does not fail the connection; failure
// to open the port does, leaving the session disconnected.
func (s *Session) Connect(path string, baudRate int) error {
	s.lock.Lock()
	switch s.state {
	case Closed:
		s.lock.Unlock()
		return ErrClosed
	case Disconnected:
	default:
		s.lock.Unlock()
		return ErrConnected
	}
	s.state = Connecting
	s.lock.Unlock()

	tr, err := transport.Open(path, baudRate)
	if err != nil {
		s.lock.Lock()
		s.state = Disconnected
		s.lock.Unlock()
		return err
	}
	s.adopt(tr)
	return nil
}

// Attach adopts an already-open transport, for callers that manage
// the port themselves (and for tests).
func (s *Session) Attach(tr *transport.Transport) error {
	s.lock.Lock()
	switch s.state {
	case Closed:
		s.lock.Unlock()
		return ErrClosed
	case Disconnected:
	default:
		s.lock.Unlock()
		return ErrConnected
	}
	s.state = Connecting
	s.lock.Unlock()

	s.adopt(tr)
	return nil
}

func (s *Session) adopt(tr *transport.Transport) {
	s.lock.Lock()
	s.tr = tr
	s.lock.Unlock()

	if !s.Reset() {
		glog.Warning("reset during connect got no response")
	}

	s.lock.Lock()
	s.state = Connected
	s.lock.Unlock()
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

func (s *Session) transport() *transport.Transport {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.tr
}

// SendMany packs messages into one BULK_OUT frame and returns how
// many were sent. Messages that did not fit the frame budget are
// dropped silently; compare the count with len(msgs). A failed frame
// write returns 0.
func (s *Session) SendMany(msgs []can.Message) int {
	tr := s.transport()
	if tr == nil {
		return 0
	}
	payload, count := s.Packer.Pack(msgs)
	if count == 0 {
		return 0
	}
	if !tr.SendFrame(&frame.Frame{Type: frame.TypeBulkOut, Payload: payload}) {
		return 0
	}
	return count
}

// Send transmits a single message.
func (s *Session) Send(id uint32, data []byte, bus uint8) bool {
	return s.SendMany([]can.Message{can.New(id, data, bus)}) == 1
}

// Receive asks the firmware for buffered CAN messages and returns
// them in wire order. Any failure, including a response timeout,
// yields an empty result.
func (s *Session) Receive() []can.Message {
	tr := s.transport()
	if tr == nil {
		return nil
	}
	s.exchange.Lock()
	defer s.exchange.Unlock()
	if !tr.SendFrame(&frame.Frame{Type: frame.TypeBulkIn}) {
		return nil
	}
	resp := tr.ReceiveFrame(BulkTimeout)
	if resp == nil || resp.Type != frame.TypeBulkIn {
		return nil
	}
	return can.Unpack(resp.Payload)
}

// Stats snapshots the transport counters. A session that never
// connected reports zeros.
func (s *Session) Stats() transport.Stats {
	tr := s.transport()
	if tr == nil {
		return transport.Stats{}
	}
	return tr.Stats()
}

// Close releases the transport. It is idempotent and the session
// cannot be reconnected afterwards.
func (s *Session) Close() error {
	s.lock.Lock()
	tr := s.tr
	s.tr = nil
	s.state = Closed
	s.lock.Unlock()
	if tr == nil {
		return nil
	}
	return tr.Close()
}
