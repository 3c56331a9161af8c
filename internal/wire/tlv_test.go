package wire

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.PutVarint(1, 42)
	w.PutBytes(2, []byte("hello"))

	child := NewWriter()
	child.PutVarint(1, 7)
	w.PutRecord(3, child)

	fields, err := ReadAll(w.Bytes())
	require.NoError(t, err)
	require.Len(t, fields, 3)

	require.Equal(t, uint8(1), fields[0].Tag)
	require.Equal(t, Varint, fields[0].Type)
	require.Equal(t, uint64(42), fields[0].Varint)

	require.Equal(t, uint8(2), fields[1].Tag)
	require.Equal(t, Bytes, fields[1].Type)
	require.Equal(t, []byte("hello"), fields[1].Bytes)

	require.Equal(t, uint8(3), fields[2].Tag)
	require.Equal(t, Record, fields[2].Type)

	nested, err := ReadAll(fields[2].Record)
	require.NoError(t, err)
	require.Len(t, nested, 1)
	require.Equal(t, uint64(7), nested[0].Varint)
}

func TestReaderEmptyBufferReturnsEOF(t *testing.T) {
	r := NewReader(nil)
	_, err := r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderTruncatedFieldIsError(t *testing.T) {
	w := NewWriter()
	w.PutBytes(5, []byte("0123456789"))
	full := w.Bytes()

	for n := 1; n < len(full); n++ {
		_, err := ReadAll(full[:n])
		if n < len(full) {
			require.Errorf(t, err, "truncation at %d bytes of %d should fail to decode, got fields instead", n, len(full))
		}
	}
}

func TestUnknownWireTypeIsError(t *testing.T) {
	buf := []byte{9, 0xFF}
	_, err := ReadAll(buf)
	require.Error(t, err)
}
