// Package wire implements the tag/length/value binary primitives shared by
// the metadata file and the framed wire messages (see the Encode*/Decode*
// functions in internal/schema). It knows nothing about what a tag *means* — that mapping
// lives in internal/schema — it only knows how to walk a byte buffer.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// WireType discriminates how a field's value is encoded.
type WireType uint8

const (
	// Varint carries an unsigned integer, LEB128-encoded.
	Varint WireType = 0
	// Bytes carries a length-prefixed (varint) byte string.
	Bytes WireType = 1
	// Record carries a length-prefixed (varint) nested TLV stream.
	Record WireType = 2
)

func (t WireType) String() string {
	switch t {
	case Varint:
		return "varint"
	case Bytes:
		return "bytes"
	case Record:
		return "record"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Field is one decoded (tag, wire-type, value) triple. Exactly one of the
// value accessors below is meaningful, selected by Type.
type Field struct {
	Tag     uint8
	Type    WireType
	Varint  uint64
	Bytes   []byte
	Record  []byte // undecoded nested TLV stream; caller decodes with Reader
}

// Writer accumulates fields into a TLV-encoded byte buffer.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// PutVarint appends a varint-typed field.
func (w *Writer) PutVarint(tag uint8, v uint64) {
	w.putHeader(tag, Varint)
	w.putUvarint(v)
}

// PutBytes appends a bytes-typed field.
func (w *Writer) PutBytes(tag uint8, v []byte) {
	w.putHeader(tag, Bytes)
	w.putUvarint(uint64(len(v)))
	w.buf.Write(v)
}

// PutRecord appends a nested record whose body was built by a child Writer.
func (w *Writer) PutRecord(tag uint8, child *Writer) {
	body := child.Bytes()
	w.putHeader(tag, Record)
	w.putUvarint(uint64(len(body)))
	w.buf.Write(body)
}

// Bytes returns the encoded buffer built so far.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) putHeader(tag uint8, t WireType) {
	w.buf.WriteByte(tag)
	w.buf.WriteByte(byte(t))
}

func (w *Writer) putUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

// Reader walks a TLV-encoded byte buffer one field at a time.
type Reader struct {
	r *bytes.Reader
}

// NewReader wraps buf for field-at-a-time decoding.
func NewReader(buf []byte) *Reader {
	return &Reader{r: bytes.NewReader(buf)}
}

// Next decodes the next field, or returns io.EOF when the buffer is
// exhausted. A malformed field (truncated length, truncated value, unknown
// wire-type) returns a non-EOF error.
func (r *Reader) Next() (Field, error) {
	tag, err := r.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return Field{}, io.EOF
		}
		return Field{}, fmt.Errorf("wire: read tag: %w", err)
	}
	wt, err := r.r.ReadByte()
	if err != nil {
		return Field{}, fmt.Errorf("wire: read wire-type for tag %d: %w", tag, err)
	}

	switch WireType(wt) {
	case Varint:
		v, err := binary.ReadUvarint(r.r)
		if err != nil {
			return Field{}, fmt.Errorf("wire: read varint for tag %d: %w", tag, err)
		}
		return Field{Tag: tag, Type: Varint, Varint: v}, nil
	case Bytes:
		n, err := binary.ReadUvarint(r.r)
		if err != nil {
			return Field{}, fmt.Errorf("wire: read length for tag %d: %w", tag, err)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r.r, buf); err != nil {
			return Field{}, fmt.Errorf("wire: read %d bytes for tag %d: %w", n, tag, err)
		}
		return Field{Tag: tag, Type: Bytes, Bytes: buf}, nil
	case Record:
		n, err := binary.ReadUvarint(r.r)
		if err != nil {
			return Field{}, fmt.Errorf("wire: read record length for tag %d: %w", tag, err)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r.r, buf); err != nil {
			return Field{}, fmt.Errorf("wire: read %d record bytes for tag %d: %w", n, tag, err)
		}
		return Field{Tag: tag, Type: Record, Record: buf}, nil
	default:
		return Field{}, fmt.Errorf("wire: tag %d has unknown wire-type %d", tag, wt)
	}
}

// ReadAll decodes every field in buf. Used by schema decoders that need to
// inspect fields out of order (e.g. to apply defaults for absent fields).
func ReadAll(buf []byte) ([]Field, error) {
	r := NewReader(buf)
	var fields []Field
	for {
		f, err := r.Next()
		if err == io.EOF {
			return fields, nil
		}
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
}
