package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MaxStringLen is the longest string the codec will encode or decode,
// bounded by the uint16 length prefix.
const MaxStringLen = 0xFFFF

// Encode serializes a message into one wire payload.
func Encode(m Message) ([]byte, error) {
	w := &writer{buf: []byte{m.MessageType()}}

	switch m := m.(type) {
	case Listen:
		w.int64(m.ContainerID)
	case Unlisten:
		w.int64(m.ContainerID)
	case SetBinary:
		w.int64(m.DeviceID)
		w.bool(m.Value)
	case SetDecimal:
		w.int64(m.DeviceID)
		w.float64(m.Value)
	case ContainerAdded:
		w.int64(m.ID)
		w.int64(m.ParentID)
		w.string(m.Name)
		w.string(m.Description)
		w.bool(m.Internal)
		w.int32(m.X)
		w.int32(m.Y)
		w.int32(m.Z)
	case DeviceAdded:
		w.int64(m.ID)
		w.int64(m.ParentID)
		w.byte(m.DeviceType)
		w.byte(m.ValueKind)
		w.string(m.Name)
		w.string(m.Description)
		w.bool(m.Internal)
		w.int32(m.X)
		w.int32(m.Y)
		w.int32(m.Z)
		w.bool(m.BinaryValue)
		w.float64(m.DecimalValue)
		w.float64(m.MinValue)
		w.float64(m.MaxValue)
		w.string(m.Unit)
		w.string(m.UnitAbbreviation)
	case ItemRemoved:
		w.int64(m.ID)
	case BinaryChanged:
		w.int64(m.DeviceID)
		w.bool(m.Value)
	case DecimalChanged:
		w.int64(m.DeviceID)
		w.float64(m.Value)
	default:
		return nil, fmt.Errorf("unsupported message type %T", m)
	}

	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

// Decode parses one wire payload back into a message. Trailing bytes after
// the message fields are an error, as is a truncated payload or an unknown
// type byte.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty message")
	}
	r := &reader{data: data[1:]}

	var m Message
	switch data[0] {
	case TypeListen:
		m = Listen{ContainerID: r.int64()}
	case TypeUnlisten:
		m = Unlisten{ContainerID: r.int64()}
	case TypeSetBinary:
		m = SetBinary{DeviceID: r.int64(), Value: r.bool()}
	case TypeSetDecimal:
		m = SetDecimal{DeviceID: r.int64(), Value: r.float64()}
	case TypeContainerAdded:
		m = ContainerAdded{
			ID:          r.int64(),
			ParentID:    r.int64(),
			Name:        r.string(),
			Description: r.string(),
			Internal:    r.bool(),
			X:           r.int32(),
			Y:           r.int32(),
			Z:           r.int32(),
		}
	case TypeDeviceAdded:
		m = DeviceAdded{
			ID:               r.int64(),
			ParentID:         r.int64(),
			DeviceType:       r.byte(),
			ValueKind:        r.byte(),
			Name:             r.string(),
			Description:      r.string(),
			Internal:         r.bool(),
			X:                r.int32(),
			Y:                r.int32(),
			Z:                r.int32(),
			BinaryValue:      r.bool(),
			DecimalValue:     r.float64(),
			MinValue:         r.float64(),
			MaxValue:         r.float64(),
			Unit:             r.string(),
			UnitAbbreviation: r.string(),
		}
	case TypeItemRemoved:
		m = ItemRemoved{ID: r.int64()}
	case TypeBinaryChanged:
		m = BinaryChanged{DeviceID: r.int64(), Value: r.bool()}
	case TypeDecimalChanged:
		m = DecimalChanged{DeviceID: r.int64(), Value: r.float64()}
	default:
		return nil, fmt.Errorf("unknown message type 0x%02x", data[0])
	}

	if r.err != nil {
		return nil, fmt.Errorf("decoding message type 0x%02x: %w", data[0], r.err)
	}
	if r.off != len(r.data) {
		return nil, fmt.Errorf("message type 0x%02x has %d trailing bytes", data[0], len(r.data)-r.off)
	}
	return m, nil
}

// writer appends fields to a wire payload. A string over MaxStringLen sets a
// sticky error checked once at the end of Encode.
type writer struct {
	buf []byte
	err error
}

func (w *writer) byte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *writer) bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *writer) int32(v int32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

func (w *writer) int64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

func (w *writer) float64(v float64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(v))
}

func (w *writer) string(s string) {
	if len(s) > MaxStringLen {
		if w.err == nil {
			w.err = fmt.Errorf("string of %d bytes exceeds the %d byte limit", len(s), MaxStringLen)
		}
		return
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// reader consumes fields from a wire payload. The first truncation sets a
// sticky error and every later field reads as zero.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.data)-r.off < n {
		r.err = fmt.Errorf("truncated at offset %d: need %d bytes, have %d", r.off, n, len(r.data)-r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) byte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) bool() bool {
	return r.byte() != 0
}

func (r *reader) int32() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

func (r *reader) int64() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

func (r *reader) float64() float64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

func (r *reader) string() string {
	n := int(binary.BigEndian.Uint16(r.take2()))
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *reader) take2() []byte {
	b := r.take(2)
	if b == nil {
		return []byte{0, 0}
	}
	return b
}
