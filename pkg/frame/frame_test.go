package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		name   string
		frame  Frame
		expect []byte
	}{
		{"empty control", Frame{Type: TypeControl},
			[]byte{0xAA, 0x00, 0x00, 0x00, 0x00, 0xAA}},
		{"bulk in with seq", Frame{Type: TypeBulkIn, Seq: 7},
			[]byte{0xAA, 0x01, 0x07, 0x00, 0x00, 0xAC}},
		{"payload", Frame{Type: TypeBulkOut, Seq: 1, Payload: []byte{0x10, 0x20}},
			[]byte{0xAA, 0x03, 0x01, 0x02, 0x00, 0xAA ^ 0x03 ^ 0x01 ^ 0x02 ^ 0x10 ^ 0x20, 0x10, 0x20}},
		{"flags", Frame{Type: TypeChunk, Flags: FlagFirstChunk | FlagLastChunk},
			[]byte{0xAA, 0x06, 0x00, 0x00, 0x03, 0xAA ^ 0x06 ^ 0x03}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Encode(&tc.frame)
			require.NoError(t, err)
			require.Equal(t, tc.expect, b)
		})
	}
}

func TestEncodeOversize(t *testing.T) {
	_, err := Encode(&Frame{Type: TypeBulkOut, Payload: make([]byte, MaxPayload+1)})
	require.ErrorIs(t, err, ErrOversize)
	_, err = Encode(&Frame{Type: TypeBulkOut, Payload: make([]byte, MaxPayload)})
	require.NoError(t, err)
}

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x01},
		bytes.Repeat([]byte{0x5A}, 16),
		bytes.Repeat([]byte{0xFF}, MaxPayload),
	}
	for _, typ := range []Type{TypeControl, TypeBulkIn, TypeSerial, TypeBulkOut, TypeStatus, TypeError, TypeChunk, TypeAck} {
		for seq := 0; seq <= 0xFF; seq += 0x33 {
			for _, payload := range payloads {
				f := &Frame{Type: typ, Seq: uint8(seq), Flags: uint8(seq ^ 0x55), Payload: payload}
				b, err := Encode(f)
				require.NoError(t, err)
				got, err := Decode(b)
				require.NoError(t, err)
				require.Equal(t, f.Type, got.Type)
				require.Equal(t, f.Seq, got.Seq)
				require.Equal(t, f.Flags, got.Flags)
				require.Equal(t, len(payload), len(got.Payload))
				if len(payload) > 0 {
					require.Equal(t, payload, got.Payload)
				}
			}
		}
	}
}

func TestDecodeBadSync(t *testing.T) {
	b, err := Encode(&Frame{Type: TypeControl, Payload: []byte{1, 2, 3}})
	require.NoError(t, err)
	for _, first := range []byte{0x00, 0x55, 0xAB, 0xFF} {
		bad := append([]byte{first}, b[1:]...)
		_, err := Decode(bad)
		require.ErrorIs(t, err, ErrBadSync)
	}
}

func TestDecodeTruncated(t *testing.T) {
	b, err := Encode(&Frame{Type: TypeBulkIn, Payload: []byte{1, 2, 3, 4}})
	require.NoError(t, err)
	for n := 0; n < len(b); n++ {
		_, err := Decode(b[:n])
		require.ErrorIs(t, err, ErrTruncated, "length %d", n)
	}
	_, err = Decode(b)
	require.NoError(t, err)
}

// Flipping any single bit of an encoded frame must make decoding
// fail. Bits in the sync byte fail the sync check and bits that grow
// the length field fail the truncation check; everything else is
// caught by the checksum.
func TestChecksumSensitivity(t *testing.T) {
	f := &Frame{Type: TypeBulkOut, Seq: 42, Flags: 0x04, Payload: []byte{0xDE, 0xAD, 0xBE, 0xEF}}
	b, err := Encode(f)
	require.NoError(t, err)
	for i := range b {
		for bit := 0; bit < 8; bit++ {
			bad := append([]byte(nil), b...)
			bad[i] ^= 1 << bit
			_, err := Decode(bad)
			require.Error(t, err, "byte %d bit %d", i, bit)
			if i != 0 && i != 3 {
				require.ErrorIs(t, err, ErrChecksum, "byte %d bit %d", i, bit)
			}
		}
	}
}

// Trailing bytes after the declared payload are not consumed.
func TestDecodeTrailingBytes(t *testing.T) {
	b, err := Encode(&Frame{Type: TypeControl, Payload: []byte{9}})
	require.NoError(t, err)
	b = append(b, 0xAA, 0x01, 0x02)
	got, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, []byte{9}, got.Payload)
}
