package frame

// Sync is the first byte of every frame.
const Sync byte = 0xAA

// HeaderSize is the fixed size of the frame header, checksum included.
const HeaderSize = 6

// MaxPayload is the largest payload a single frame can carry.
const MaxPayload = 249

// Type identifies the logical endpoint a frame belongs to.
type Type byte

// Frame types, mirroring the USB endpoints of the emulated adapter.
const (
	TypeControl Type = 0x00 // EP0: control transfers
	TypeBulkIn  Type = 0x01 // EP1: CAN messages from the vehicle
	TypeSerial  Type = 0x02 // EP2: serial/debug passthrough
	TypeBulkOut Type = 0x03 // EP3: CAN messages to the vehicle
	TypeStatus  Type = 0x04
	TypeError   Type = 0x05
	TypeChunk   Type = 0x06
	TypeAck     Type = 0x07
)

// IsValid reports whether t is a known frame type.
func (t Type) IsValid() bool {
	return t <= TypeAck
}

// Flag bits carried in the header flags byte. The adapter forwards
// them opaquely; chunked transfers are driven by the firmware side.
const (
	FlagFirstChunk  byte = 0x01
	FlagLastChunk   byte = 0x02
	FlagAckRequired byte = 0x04
	FlagPriority    byte = 0x08
	FlagCompressed  byte = 0x10
	FlagEncrypted   byte = 0x20
)

// Error codes reported in the payload of TypeError frames.
const (
	CodeInvalidFrame byte = 0x01
	CodeChecksum     byte = 0x02
	CodeTimeout      byte = 0x03
	CodeBufferFull   byte = 0x04
	CodeUnsupported  byte = 0x05
	CodeCANFailed    byte = 0x06
)

// Frame is one checksummed unit of the serial protocol. Seq is
// assigned by the transport at send time; the checksum is derived
// during encode and never stored here.
type Frame struct {
	Type    Type
	Seq     uint8
	Flags   uint8
	Payload []byte
}

// Encode serializes f, computing the checksum over the header and
// payload bytes.
func Encode(f *Frame) ([]byte, error) {
	if len(f.Payload) > MaxPayload {
		return nil, ErrOversize
	}
	b := make([]byte, HeaderSize+len(f.Payload))
	b[0] = Sync
	b[1] = byte(f.Type)
	b[2] = f.Seq
	b[3] = byte(len(f.Payload))
	b[4] = f.Flags
	copy(b[HeaderSize:], f.Payload)
	b[5] = xorSum(b[:5], f.Payload)
	return b, nil
}

// Decode reconstructs a frame from b. Bytes beyond the declared
// payload length are left untouched; the caller owns the framing
// boundary.
func Decode(b []byte) (*Frame, error) {
	if len(b) < HeaderSize {
		return nil, ErrTruncated
	}
	if b[0] != Sync {
		return nil, ErrBadSync
	}
	n := int(b[3])
	if len(b) < HeaderSize+n {
		return nil, ErrTruncated
	}
	payload := b[HeaderSize : HeaderSize+n]
	if xorSum(b[:5], payload) != b[5] {
		return nil, ErrChecksum
	}
	f := &Frame{
		Type:  Type(b[1]),
		Seq:   b[2],
		Flags: b[4],
	}
	if n > 0 {
		f.Payload = append([]byte(nil), payload...)
	}
	return f, nil
}

func xorSum(head, payload []byte) byte {
	var sum byte
	for _, b := range head {
		sum ^= b
	}
	for _, b := range payload {
		sum ^= b
	}
	return sum
}
