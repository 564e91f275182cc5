// Package canlog reads and writes CBOR capture streams of CAN
// messages. A capture is a plain concatenation of records, one CBOR
// map per message, so files can be streamed and appended to.
package canlog

import (
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/cankit/ftcan/pkg/can"
)

// Record is one captured message. Integer keys keep records compact;
// timestamps are encoded with microsecond precision.
type Record struct {
	Time     time.Time `cbor:"1,keyasint"`
	Bus      uint8     `cbor:"2,keyasint"`
	ID       uint32    `cbor:"3,keyasint"`
	Extended bool      `cbor:"4,keyasint,omitempty"`
	FD       bool      `cbor:"5,keyasint,omitempty"`
	Data     []byte    `cbor:"6,keyasint"`
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.EncOptions{Time: cbor.TimeUnixMicro}.EncMode()
	if err != nil {
		panic(err)
	}
}

// FromMessage captures m as a record.
func FromMessage(m can.Message) Record {
	return Record{
		Time:     m.Time,
		Bus:      m.Bus,
		ID:       m.ID,
		Extended: m.Extended,
		FD:       m.FD,
		Data:     m.Data,
	}
}

// Message converts the record back to a bus message.
func (r Record) Message() can.Message {
	return can.Message{
		ID:       r.ID,
		Data:     r.Data,
		Bus:      r.Bus,
		Extended: r.Extended,
		FD:       r.FD,
		Time:     r.Time,
	}
}

// Writer appends records to a capture stream.
type Writer struct {
	enc *cbor.Encoder
}

// NewWriter writes a capture to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: encMode.NewEncoder(w)}
}

// Write appends one record per message.
func (w *Writer) Write(msgs ...can.Message) error {
	for _, m := range msgs {
		if err := w.enc.Encode(FromMessage(m)); err != nil {
			return err
		}
	}
	return nil
}

// Reader walks a capture stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader reads a capture from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Read returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Read() (Record, error) {
	var rec Record
	err := r.dec.Decode(&rec)
	return rec, err
}
