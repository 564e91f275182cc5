package transport

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cankit/ftcan/pkg/frame"
)

// fakePort is an in-memory Port. Reads drain rx and simulate a read
// timeout (n=0, nil) once it is empty; writes land in tx.
type fakePort struct {
	mu       sync.Mutex
	rx       bytes.Buffer
	tx       bytes.Buffer
	writeErr error
	short    bool
	closed   bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("port closed")
	}
	if p.rx.Len() == 0 {
		return 0, nil
	}
	return p.rx.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.short && len(b) > 1 {
		p.tx.Write(b[:len(b)-1])
		return len(b) - 1, nil
	}
	return p.tx.Write(b)
}

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }
func (p *fakePort) Drain() error                       { return nil }

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) inject(t *testing.T, f *frame.Frame) {
	b, err := frame.Encode(f)
	require.NoError(t, err)
	p.mu.Lock()
	p.rx.Write(b)
	p.mu.Unlock()
}

func TestSendFrame(t *testing.T) {
	port := &fakePort{}
	tr := New(port)

	require.True(t, tr.SendFrame(&frame.Frame{Type: frame.TypeControl, Payload: []byte{1, 2}}))
	require.True(t, tr.SendFrame(&frame.Frame{Type: frame.TypeBulkOut}))

	want, err := frame.Encode(&frame.Frame{Type: frame.TypeControl, Seq: 0, Payload: []byte{1, 2}})
	require.NoError(t, err)
	second, err := frame.Encode(&frame.Frame{Type: frame.TypeBulkOut, Seq: 1})
	require.NoError(t, err)
	require.Equal(t, append(want, second...), port.tx.Bytes())

	stats := tr.Stats()
	require.Equal(t, uint64(2), stats.FramesSent)
	require.Equal(t, uint64(len(want)+len(second)), stats.BytesSent)
	require.Equal(t, uint64(0), stats.Errors)
	require.True(t, stats.Connected)
}

func TestSendFrameSeqWraps(t *testing.T) {
	port := &fakePort{}
	tr := New(port)
	tr.seq = 0xFF
	f := &frame.Frame{Type: frame.TypeStatus}
	require.True(t, tr.SendFrame(f))
	require.Equal(t, uint8(0xFF), f.Seq)
	require.True(t, tr.SendFrame(f))
	require.Equal(t, uint8(0x00), f.Seq)
}

func TestSendFrameShortWrite(t *testing.T) {
	port := &fakePort{short: true}
	tr := New(port)
	require.False(t, tr.SendFrame(&frame.Frame{Type: frame.TypeControl, Payload: []byte{1}}))
	stats := tr.Stats()
	require.Equal(t, uint64(0), stats.FramesSent)
	require.Equal(t, uint64(1), stats.Errors)
}

func TestSendFrameWriteError(t *testing.T) {
	port := &fakePort{writeErr: errors.New("gone")}
	tr := New(port)
	require.False(t, tr.SendFrame(&frame.Frame{Type: frame.TypeControl}))
	require.Equal(t, uint64(1), tr.Stats().Errors)
}

func TestSendFrameOversize(t *testing.T) {
	tr := New(&fakePort{})
	require.False(t, tr.SendFrame(&frame.Frame{Type: frame.TypeBulkOut, Payload: make([]byte, frame.MaxPayload+1)}))
	require.Equal(t, uint64(1), tr.Stats().Errors)
}

func TestReceiveFrame(t *testing.T) {
	port := &fakePort{}
	tr := New(port)
	port.inject(t, &frame.Frame{Type: frame.TypeBulkIn, Seq: 9, Payload: []byte{0xCA, 0xFE}})

	f := tr.ReceiveFrame(50 * time.Millisecond)
	require.NotNil(t, f)
	require.Equal(t, frame.TypeBulkIn, f.Type)
	require.Equal(t, uint8(9), f.Seq)
	require.Equal(t, []byte{0xCA, 0xFE}, f.Payload)

	stats := tr.Stats()
	require.Equal(t, uint64(1), stats.FramesReceived)
	require.Equal(t, uint64(frame.HeaderSize+2), stats.BytesReceived)
}

func TestReceiveFrameTimeout(t *testing.T) {
	tr := New(&fakePort{})
	require.Nil(t, tr.ReceiveFrame(10*time.Millisecond))
	// nothing arrived: not an error
	require.Equal(t, uint64(0), tr.Stats().Errors)
}

func TestReceiveFramePartialPayload(t *testing.T) {
	port := &fakePort{}
	tr := New(port)
	b, err := frame.Encode(&frame.Frame{Type: frame.TypeBulkIn, Payload: []byte{1, 2, 3, 4}})
	require.NoError(t, err)
	port.rx.Write(b[:len(b)-2])

	require.Nil(t, tr.ReceiveFrame(10*time.Millisecond))
	require.Equal(t, uint64(0), tr.Stats().FramesReceived)
}

func TestReceiveFrameCorrupt(t *testing.T) {
	port := &fakePort{}
	tr := New(port)
	b, err := frame.Encode(&frame.Frame{Type: frame.TypeControl, Payload: []byte{1}})
	require.NoError(t, err)
	b[len(b)-1] ^= 0xFF
	port.rx.Write(b)

	require.Nil(t, tr.ReceiveFrame(10*time.Millisecond))
	require.Equal(t, uint64(1), tr.Stats().Errors)
}

func TestClose(t *testing.T) {
	port := &fakePort{}
	tr := New(port)
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	require.False(t, tr.Stats().Connected)
	require.True(t, port.closed)
}

func TestConnectionError(t *testing.T) {
	cause := errors.New("no such device")
	err := &ConnectionError{Port: "/dev/ttyUSB0", Err: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "/dev/ttyUSB0")
}
