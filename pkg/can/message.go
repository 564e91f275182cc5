package can

import (
	"errors"
	"fmt"
	"time"
)

// Identifier and payload limits.
const (
	MaxStdID = 0x7FF
	MaxExtID = 0x1FFFFFFF
	MaxData  = 64 // CAN-FD
	MaxBus   = 7  // wire format allows 3 bus bits
	BusCount = 3  // buses actually present on the adapter
)

var (
	ErrInvalidID   = errors.New("invalid identifier")
	ErrInvalidData = errors.New("data longer than 64 bytes")
	ErrInvalidBus  = errors.New("invalid bus index")
)

// Message is one CAN frame, classic or FD.
//
// Time is the capture or construction timestamp. It is never carried
// on the wire: the codec stamps messages as they are parsed.
type Message struct {
	ID       uint32
	Data     []byte
	Bus      uint8
	Extended bool
	FD       bool
	Time     time.Time
}

// New constructs a timestamped message.
func New(id uint32, data []byte, bus uint8) Message {
	return Message{ID: id, Data: data, Bus: bus, Extended: id > MaxStdID, Time: time.Now()}
}

// Validate returns an error if the message cannot be represented on
// the wire. The codec itself does not validate identifiers; callers
// that accept external input should.
func (m Message) Validate() error {
	if m.Extended {
		if m.ID > MaxExtID {
			return ErrInvalidID
		}
	} else if m.ID > MaxStdID {
		return ErrInvalidID
	}
	if len(m.Data) > MaxData {
		return ErrInvalidData
	}
	if m.Bus > MaxBus {
		return ErrInvalidBus
	}
	return nil
}

func (m Message) String() string {
	return fmt.Sprintf("Message(addr=0x%X, data=%x, bus=%d)", m.ID, m.Data, m.Bus)
}
