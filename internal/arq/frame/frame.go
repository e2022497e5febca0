// Package frame implements the wire codec for DATA, ACK and NAK frames:
// build a CRC-32 trailered buffer for the physical layer, and parse one back
// into a tagged Frame, exactly as spec.md §3/§4.2/§6 define the format.
package frame

import "fmt"

// Kind identifies the frame type carried in the first wire byte.
type Kind byte

const (
	Data Kind = 1
	Ack  Kind = 2
	Nak  Kind = 3
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "DATA"
	case Ack:
		return "ACK"
	case Nak:
		return "NAK"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// Frame is the parsed, tagged-variant form of a received frame. Seq and
// Data are only meaningful when Kind == Data.
type Frame struct {
	Kind Kind
	Ack  uint8
	Seq  uint8
	Data []byte
}

// ErrShortFrame is returned by Parse when the buffer is shorter than
// minWireLen (5 bytes, one below the 6-byte ACK/NAK wire size), or when a
// DATA frame is shorter than its full kind+ack+seq+PKT_LEN+trailer length.
var ErrShortFrame = fmt.Errorf("frame: buffer shorter than minimum frame size")

// ErrBadChecksum is returned by Parse when the CRC-32 trailer does not
// verify.
var ErrBadChecksum = fmt.Errorf("frame: CRC checksum mismatch")

// minWireLen is the floor below which a received buffer cannot possibly be
// a valid frame. spec.md §3/§4.2 and the original C source both check
// `len < 5`, one byte short of an ACK/NAK frame's true 6-byte minimum
// (kind+ack+4-byte trailer) — kept as-is rather than "corrected", since it
// is the documented behavior and a length-5 buffer fails the CRC check
// immediately afterward regardless.
const minWireLen = 5

// BuildData encodes a DATA frame: kind, ack, seq, the PKT_LEN payload, and
// the CRC-32 trailer. pktLen fixes the payload size the codec emits;
// shorter payloads are zero-padded, matching the original C source's fixed
// `unsigned char data[PKT_LEN]` field.
func BuildData(seq, ack uint8, payload []byte, pktLen int) []byte {
	buf := make([]byte, 0, 1+1+1+pktLen+4)
	buf = append(buf, byte(Data), ack, seq)
	fixed := make([]byte, pktLen)
	copy(fixed, payload)
	buf = append(buf, fixed...)
	return appendCRC(buf)
}

// BuildAck encodes a standalone ACK frame.
func BuildAck(ack uint8) []byte {
	buf := []byte{byte(Ack), ack}
	return appendCRC(buf)
}

// BuildNak encodes a NAK frame.
func BuildNak(ack uint8) []byte {
	buf := []byte{byte(Nak), ack}
	return appendCRC(buf)
}

// Parse validates the CRC-32 trailer over buf and decodes the frame. pktLen
// must match the value BuildData was called with on the sending side; it is
// used only to slice a DATA frame's payload out of buf.
func Parse(buf []byte, pktLen int) (Frame, error) {
	if len(buf) < minWireLen {
		return Frame{}, ErrShortFrame
	}
	if !verifyCRC(buf) {
		return Frame{}, ErrBadChecksum
	}

	kind := Kind(buf[0])
	ack := buf[1]

	switch kind {
	case Ack, Nak:
		return Frame{Kind: kind, Ack: ack}, nil
	case Data:
		if len(buf) < 1+1+1+pktLen+4 {
			return Frame{}, ErrShortFrame
		}
		seq := buf[2]
		data := make([]byte, pktLen)
		copy(data, buf[3:3+pktLen])
		return Frame{Kind: Data, Ack: ack, Seq: seq, Data: data}, nil
	default:
		return Frame{}, fmt.Errorf("frame: unknown kind %d", buf[0])
	}
}
