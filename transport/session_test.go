package transport

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aquaenet/aquaed/internal/aerrors"
	"github.com/aquaenet/aquaed/internal/schema"
)

// chunkConn is a Conn backed by an in-memory buffer whose Read never
// returns more than chunkSize bytes at a time, so tests can exercise the
// state machine's handling of a connection that delivers a frame in
// small, arbitrarily-placed pieces.
type chunkConn struct {
	buf       *bytes.Buffer
	chunkSize int
}

func (c *chunkConn) Read(p []byte) (int, error) {
	if len(p) > c.chunkSize {
		p = p[:c.chunkSize]
	}
	return c.buf.Read(p)
}

func (c *chunkConn) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func TestFrameRoundTripInSmallChunks(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewSession(&chunkConn{buf: buf, chunkSize: 4096})

	body := &schema.IdentitySignRequestRecord{
		SubjectIdentity: []byte("subject-identity-bytes"),
		IdentitySetNode: []string{"alpha", "beta"},
	}
	payload := schema.EncodeIdentitySignRequest(body)
	require.NoError(t, writer.WriteFrame(context.Background(), IdentitySignRequest, payload))

	reader := NewSession(&chunkConn{buf: buf, chunkSize: 7})
	hdr, err := reader.ReadFrame(context.Background())
	require.NoError(t, err)
	require.Equal(t, IdentitySignRequest, hdr.Type)
	require.Equal(t, uint32(len(payload)), hdr.Length)
	require.Equal(t, WaitingForPayload, reader.State())

	got, err := reader.ReadIdentitySignRequest(context.Background())
	require.NoError(t, err)
	require.Equal(t, body.SubjectIdentity, got.SubjectIdentity)
	require.Equal(t, body.IdentitySetNode, got.IdentitySetNode)
	require.Equal(t, WaitingForFrame, reader.State())
}

func TestOversizedFrameRejectedBeforePayloadRead(t *testing.T) {
	buf := &bytes.Buffer{}
	bigLen := uint32(schema.MaxPayloadLength + 1)
	mt := uint8(IdentitySignRequest)
	headerBuf := schema.EncodeHeader(&schema.Header{PayloadLength: &bigLen, MessageType: &mt})

	buf.WriteByte(0x00)
	buf.WriteByte(byte(len(headerBuf)))
	buf.Write(headerBuf)
	// deliberately no payload bytes follow: ReadFrame must fail before
	// ever attempting to read them.

	s := NewSession(&chunkConn{buf: buf, chunkSize: 4096})
	_, err := s.ReadFrame(context.Background())
	require.Error(t, err)
	var peerErr *aerrors.PeerError
	require.ErrorAs(t, err, &peerErr)
	require.Equal(t, 0, buf.Len()) // header consumed, nothing else was touched
}

func TestVersionMismatchIsRejected(t *testing.T) {
	buf := &bytes.Buffer{}
	buf.WriteByte(0xF0) // version nibble 15, unsupported
	buf.WriteByte(0x01)
	buf.WriteByte(0x00)

	s := NewSession(&chunkConn{buf: buf, chunkSize: 4096})
	_, err := s.ReadFrame(context.Background())
	require.Error(t, err)
	var peerErr *aerrors.PeerError
	require.ErrorAs(t, err, &peerErr)
}

func TestReadFrameFromWrongStateIsProgrammingError(t *testing.T) {
	s := NewSession(&chunkConn{buf: &bytes.Buffer{}, chunkSize: 16})
	s.state = WaitingForPayload

	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(*aerrors.ProgrammingError)
		require.True(t, ok)
	}()
	s.ReadFrame(context.Background())
	t.Fatal("expected ReadFrame to panic")
}

func TestReadPayloadWithMismatchedTypeIsProgrammingError(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewSession(&chunkConn{buf: buf, chunkSize: 4096})
	require.NoError(t, writer.WriteFrame(context.Background(), Finish, nil))

	reader := NewSession(&chunkConn{buf: buf, chunkSize: 4096})
	hdr, err := reader.ReadFrame(context.Background())
	require.NoError(t, err)
	require.Equal(t, Finish, hdr.Type)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(*aerrors.ProgrammingError)
		require.True(t, ok)
	}()
	reader.ReadIdentitySignRequest(context.Background())
	t.Fatal("expected ReadIdentitySignRequest to panic")
}

func TestEmptyPayloadRoundTrips(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := NewSession(&chunkConn{buf: buf, chunkSize: 4096})
	require.NoError(t, writer.WriteFrame(context.Background(), Finish, nil))

	reader := NewSession(&chunkConn{buf: buf, chunkSize: 1})
	hdr, err := reader.ReadFrame(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(0), hdr.Length)

	got, err := reader.ReadOpaquePayload(context.Background(), Finish)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Equal(t, WaitingForFrame, reader.State())
}
