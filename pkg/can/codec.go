package can

import (
	"encoding/binary"
	"time"
)

// Wire layout per message: header(1) address(4, little-endian)
// data(DLC table length) checksum(1).
//
// header: dlc<<4 | bus<<1 | fd
// address: bit30 set for extended identifiers; standard identifiers
// occupy bits 18..28, extended ones bits 0..28.
const (
	headSize     = 5 // header byte + address word
	minWireSize  = headSize + 1
	extendedBit  = 1 << 30
	stdAddrShift = 18
)

// dlcToLen maps the 4-bit data length code to a payload length.
// Codes 0..8 are classic CAN, 9..15 are the CAN-FD lengths.
var dlcToLen = [16]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 12, 16, 20, 24, 32, 48, 64}

// dlcFor returns the smallest DLC whose mapped length fits n bytes.
func dlcFor(n int) (int, bool) {
	for dlc, l := range dlcToLen {
		if l >= n {
			return dlc, true
		}
	}
	return 0, false
}

// Packer packs messages into one bulk frame payload.
//
// Budget is a conservative per-message size estimate kept for
// compatibility with the historic packing policy; the packer also
// checks the real encoded size, so the payload can never exceed
// Capacity even for FD messages larger than the estimate.
type Packer struct {
	Capacity int // maximum payload bytes, default DefaultCapacity
	Budget   int // per-message estimate, default DefaultBudget
}

// Default packing policy.
const (
	DefaultCapacity = 250
	DefaultBudget   = 20
)

// Pack encodes messages in order until either limit would be
// exceeded, then stops. It returns the payload and the number of
// messages included. Messages that cannot be encoded (over 64 data
// bytes) also stop the batch.
func (p Packer) Pack(msgs []Message) ([]byte, int) {
	capacity, budget := p.Capacity, p.Budget
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	var buf []byte
	count := 0
	for _, m := range msgs {
		dlc, ok := dlcFor(len(m.Data))
		if !ok {
			break
		}
		size := minWireSize + dlcToLen[dlc]
		if len(buf)+budget > capacity || len(buf)+size > capacity {
			break
		}
		buf = appendMessage(buf, m, dlc)
		count++
	}
	return buf, count
}

// Pack packs with the default policy.
func Pack(msgs []Message) ([]byte, int) {
	return Packer{}.Pack(msgs)
}

func appendMessage(buf []byte, m Message, dlc int) []byte {
	start := len(buf)
	var fd byte
	if m.FD {
		fd = 1
	}
	buf = append(buf, byte(dlc<<4)|(m.Bus&MaxBus)<<1|fd)

	var addr uint32
	if m.Extended {
		addr = m.ID&MaxExtID | extendedBit
	} else {
		addr = (m.ID & MaxStdID) << stdAddrShift
	}
	buf = binary.LittleEndian.AppendUint32(buf, addr)

	// Zero-pad up to the DLC length so encode and decode stay
	// inverses for every payload size.
	buf = append(buf, m.Data...)
	for i := len(m.Data); i < dlcToLen[dlc]; i++ {
		buf = append(buf, 0)
	}

	var sum byte
	for _, b := range buf[start:] {
		sum ^= b
	}
	return append(buf, sum)
}

// Unpack parses a bulk frame payload back into messages, in wire
// order. A trailing partial message ends parsing without error. The
// per-message checksum byte is consumed but not enforced: the frame
// checksum already covers the whole payload.
func Unpack(data []byte) []Message {
	var msgs []Message
	now := time.Now()
	for len(data) >= minWireSize {
		head := data[0]
		dlc := int(head >> 4)
		bus := (head >> 1) & MaxBus
		fd := head&1 != 0

		size := minWireSize + dlcToLen[dlc]
		if len(data) < size {
			break
		}
		raw := binary.LittleEndian.Uint32(data[1:headSize])
		extended := raw&extendedBit != 0
		var id uint32
		if extended {
			id = raw & MaxExtID
		} else {
			id = (raw >> stdAddrShift) & MaxStdID
		}
		msgs = append(msgs, Message{
			ID:       id,
			Data:     append([]byte(nil), data[headSize:size-1]...),
			Bus:      bus,
			Extended: extended,
			FD:       fd,
			Time:     now,
		})
		data = data[size:]
	}
	return msgs
}
