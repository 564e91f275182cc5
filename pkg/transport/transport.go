package transport

import (
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/cankit/ftcan/pkg/frame"
)

// DefaultBaudRate is the FT232RL link speed.
const DefaultBaudRate = 3000000

// Port is the duplex byte channel the transport drives. serial.Port
// satisfies it; tests substitute in-memory fakes.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(time.Duration) error
	Drain() error
}

// Stats is a snapshot of the transport counters. Counters only grow;
// a new transport starts from zero.
type Stats struct {
	FramesSent     uint64
	FramesReceived uint64
	BytesSent      uint64
	BytesReceived  uint64
	Errors         uint64
	Connected      bool
}

// Transport sends and receives frames over a Port.
type Transport struct {
	port Port

	sendLock sync.Mutex // serializes the whole encode+write of one frame
	seq      uint8

	statsLock sync.Mutex
	stats     Stats

	closeOnce sync.Once
}

// Open opens a serial port with the fixed link parameters (8 data
// bits, no parity, one stop bit) and asserts RTS for hardware flow
// control. Failure to open is the only fatal fault in the package.
func Open(path string, baudRate int) (*Transport, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, &ConnectionError{Port: path, Err: err}
	}
	if err := port.SetRTS(true); err != nil {
		port.Close()
		return nil, &ConnectionError{Port: path, Err: err}
	}
	glog.V(1).Infof("opened %s at %d baud", path, baudRate)
	return New(port), nil
}

// New wraps an already-open port.
func New(port Port) *Transport {
	return &Transport{port: port, stats: Stats{Connected: true}}
}

// SendFrame assigns the next sequence number to f, encodes and writes
// it. It reports false when the frame could not be fully written; it
// never retries.
func (t *Transport) SendFrame(f *frame.Frame) bool {
	t.sendLock.Lock()
	defer t.sendLock.Unlock()

	f.Seq = t.seq
	t.seq++

	b, err := frame.Encode(f)
	if err != nil {
		t.countError()
		return false
	}
	n, err := t.port.Write(b)
	if err == nil {
		err = t.port.Drain()
	}
	if err != nil || n != len(b) {
		glog.Warningf("frame send failed after %d/%d bytes: %v", n, len(b), err)
		t.countError()
		return false
	}
	t.countSent(uint64(len(b)))
	return true
}

// ReceiveFrame reads one frame, waiting up to timeout for each of the
// header and payload reads. It returns nil when nothing (or only a
// partial frame) arrived in time, and nil with the error counter
// bumped when the frame failed to decode.
func (t *Transport) ReceiveFrame(timeout time.Duration) *frame.Frame {
	buf := make([]byte, frame.HeaderSize)
	if !t.readFull(buf, timeout) {
		return nil
	}
	if n := int(buf[3]); n > 0 {
		payload := make([]byte, n)
		if !t.readFull(payload, timeout) {
			return nil
		}
		buf = append(buf, payload...)
	}
	f, err := frame.Decode(buf)
	if err != nil {
		glog.V(1).Infof("dropping frame: %v", err)
		t.countError()
		return nil
	}
	t.countReceived(uint64(len(buf)))
	return f
}

// readFull reads exactly len(buf) bytes. It reports false once the
// port's read timeout expires without progress or the port fails.
func (t *Transport) readFull(buf []byte, timeout time.Duration) bool {
	if err := t.port.SetReadTimeout(timeout); err != nil {
		t.countError()
		return false
	}
	for got := 0; got < len(buf); {
		n, err := t.port.Read(buf[got:])
		if err != nil {
			t.countError()
			return false
		}
		if n == 0 {
			// read timeout expired
			return false
		}
		got += n
	}
	return true
}

// Stats returns a snapshot of the counters.
func (t *Transport) Stats() Stats {
	t.statsLock.Lock()
	defer t.statsLock.Unlock()
	return t.stats
}

// Close releases the port. It is idempotent.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.statsLock.Lock()
		t.stats.Connected = false
		t.statsLock.Unlock()
		err = t.port.Close()
	})
	return err
}

func (t *Transport) countSent(n uint64) {
	t.statsLock.Lock()
	t.stats.FramesSent++
	t.stats.BytesSent += n
	t.statsLock.Unlock()
}

func (t *Transport) countReceived(n uint64) {
	t.statsLock.Lock()
	t.stats.FramesReceived++
	t.stats.BytesReceived += n
	t.statsLock.Unlock()
}

func (t *Transport) countError() {
	t.statsLock.Lock()
	t.stats.Errors++
	t.statsLock.Unlock()
}

// ListPorts returns the serial devices visible on this host, for use
// by discovery front ends.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
