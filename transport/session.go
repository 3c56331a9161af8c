// Package transport implements the per-connection framing state machine
// that sits on top of a mutually-authenticated byte stream: the version
// byte, the header-length byte, the Header record, and the typed payload
// that follows it.
package transport

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/aquaenet/aquaed/internal/aerrors"
	"github.com/aquaenet/aquaed/internal/schema"
)

// frameVersion is the only version byte this Session accepts. The top
// nibble of the first frame byte carries it; the bottom nibble is
// reserved and must be zero.
const frameVersion = 0x0

// Conn is the byte stream a Session runs its state machine over. A
// *tls.Conn, a net.Conn, or a test double all satisfy it.
type Conn interface {
	io.Reader
	io.Writer
}

// deadlineConn is implemented by connections that support context
// deadlines (net.Conn does). Sessions degrade gracefully without it.
type deadlineConn interface {
	SetDeadline(time.Time) error
}

// Session is one connection's frame state machine. It is not safe for
// concurrent use: a listener owns exactly one goroutine per Session.
type Session struct {
	ID   uuid.UUID
	conn Conn

	state               State
	expectedPayloadType *MessageType
	payloadRemaining    uint32
}

// NewSession wraps conn in a fresh Session, positioned at WAITING_FOR_FRAME.
func NewSession(conn Conn) *Session {
	return &Session{
		ID:    uuid.New(),
		conn:  conn,
		state: WaitingForFrame,
	}
}

// State reports the Session's current position in the frame state
// machine. Exposed for logging and for tests that assert on exact
// mid-frame states.
func (s *Session) State() State { return s.state }

// FrameHeader is what ReadFrame hands back once a frame's header has been
// parsed: the payload's declared length and type. The caller must then
// invoke the one typed reader matching Type before doing anything else
// with the Session.
type FrameHeader struct {
	Type   MessageType
	Length uint32
}

func applyDeadline(conn Conn, ctx context.Context) {
	dc, ok := conn.(deadlineConn)
	if !ok {
		return
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = dc.SetDeadline(dl)
		return
	}
	_ = dc.SetDeadline(time.Time{})
}

// ReadFrame blocks until the framing byte, the header-length byte and the
// Header record have all arrived, validating each as it goes. It must be
// called from WAITING_FOR_FRAME; calling it from any other state, or
// while a previous frame's payload has not yet been consumed, is a
// programming error, not a peer error.
func (s *Session) ReadFrame(ctx context.Context) (*FrameHeader, error) {
	if s.state != WaitingForFrame || s.expectedPayloadType != nil {
		panic(&aerrors.ProgrammingError{
			Op:   "transport.Session.ReadFrame",
			Want: WaitingForFrame.String(),
			Got:  s.state.String(),
		})
	}
	if ctx.Err() != nil {
		return nil, &aerrors.IOError{SessionID: s.ID.String(), Op: "read frame", Err: ctx.Err()}
	}
	applyDeadline(s.conn, ctx)

	var b [1]byte
	if _, err := io.ReadFull(s.conn, b[:]); err != nil {
		return nil, &aerrors.PeerError{SessionID: s.ID.String(), Op: "read framing byte", Err: err}
	}
	s.state = ReadFirstByte
	if version := b[0] >> 4; version != frameVersion || b[0]&0x0F != 0 {
		return nil, &aerrors.PeerError{
			SessionID: s.ID.String(),
			Op:        "read framing byte",
			Err:       unsupportedVersionError(version),
		}
	}

	if _, err := io.ReadFull(s.conn, b[:]); err != nil {
		return nil, &aerrors.PeerError{SessionID: s.ID.String(), Op: "read header length", Err: err}
	}
	s.state = ReadHeaderLength
	headerLen := b[0]
	if headerLen == 0 {
		return nil, &aerrors.PeerError{SessionID: s.ID.String(), Op: "read header length", Err: emptyHeaderError{}}
	}

	s.state = WaitingForHeader
	headerBuf := make([]byte, headerLen)
	read := 0
	for read < len(headerBuf) {
		n, err := s.conn.Read(headerBuf[read:])
		if n > 0 {
			read += n
			s.state = ReadingHeader
		}
		if err != nil {
			if err == io.EOF && read == len(headerBuf) {
				break
			}
			return nil, &aerrors.PeerError{SessionID: s.ID.String(), Op: "read header", Err: err}
		}
	}

	s.state = ParsingHeader
	hdr, err := schema.DecodeHeader(headerBuf)
	if err != nil {
		return nil, &aerrors.PeerError{SessionID: s.ID.String(), Op: "parse header", Err: err}
	}
	if hdr.PayloadLength == nil || hdr.MessageType == nil {
		return nil, &aerrors.PeerError{SessionID: s.ID.String(), Op: "parse header", Err: incompleteHeaderError{}}
	}
	if *hdr.PayloadLength > schema.MaxPayloadLength {
		return nil, &aerrors.PeerError{SessionID: s.ID.String(), Op: "parse header", Err: oversizedPayloadError(*hdr.PayloadLength)}
	}
	mt, ok := messageTypeFromWire(*hdr.MessageType)
	if !ok {
		return nil, &aerrors.PeerError{SessionID: s.ID.String(), Op: "parse header", Err: unknownMessageTypeError(*hdr.MessageType)}
	}

	s.state = WaitingForPayload
	s.expectedPayloadType = &mt
	s.payloadRemaining = *hdr.PayloadLength
	return &FrameHeader{Type: mt, Length: *hdr.PayloadLength}, nil
}

// readPayload performs the WAITING_FOR_PAYLOAD -> READING_PAYLOAD ->
// READ_PAYLOAD transition shared by every typed reader, then resets the
// Session to WAITING_FOR_FRAME.
func (s *Session) readPayload(ctx context.Context, want MessageType) ([]byte, error) {
	if s.state != WaitingForPayload || s.expectedPayloadType == nil || *s.expectedPayloadType != want {
		got := "<none>"
		if s.expectedPayloadType != nil {
			got = s.expectedPayloadType.String()
		}
		panic(&aerrors.ProgrammingError{
			Op:   "transport.Session payload reader",
			Want: want.String(),
			Got:  got,
		})
	}
	if ctx.Err() != nil {
		return nil, &aerrors.IOError{SessionID: s.ID.String(), Op: "read payload", Err: ctx.Err()}
	}
	applyDeadline(s.conn, ctx)

	buf := make([]byte, s.payloadRemaining)
	read := 0
	for read < len(buf) {
		n, err := s.conn.Read(buf[read:])
		if n > 0 {
			read += n
			s.state = ReadingPayload
		}
		if err != nil {
			if err == io.EOF && read == len(buf) {
				break
			}
			return nil, &aerrors.PeerError{SessionID: s.ID.String(), Op: "read payload", Err: err}
		}
	}
	s.state = ReadPayload

	s.state = WaitingForFrame
	s.expectedPayloadType = nil
	s.payloadRemaining = 0
	return buf, nil
}

// ReadIdentitySignRequest consumes the current frame's payload as an
// IDENTITY_SIGN_REQUEST record. It must be called only after ReadFrame
// reports Type == IdentitySignRequest.
func (s *Session) ReadIdentitySignRequest(ctx context.Context) (*schema.IdentitySignRequestRecord, error) {
	buf, err := s.readPayload(ctx, IdentitySignRequest)
	if err != nil {
		return nil, err
	}
	rec, err := schema.DecodeIdentitySignRequest(buf)
	if err != nil {
		return nil, &aerrors.PeerError{SessionID: s.ID.String(), Op: "decode identity sign request", Err: err}
	}
	return rec, nil
}

// ReadOpaquePayload consumes the current frame's payload as raw bytes,
// for message types this Session's caller handles without a typed
// schema (SIGNED_QUERY, BAD_QUERY_RESPONSE, QUERY_RESPONSE,
// SECOND_WHISTLE, QUERY_ANSWER, FINISH). want must match the type
// ReadFrame reported.
func (s *Session) ReadOpaquePayload(ctx context.Context, want MessageType) ([]byte, error) {
	return s.readPayload(ctx, want)
}

// WriteFrame encodes and writes a complete frame: framing byte,
// header-length byte, Header record, then payload.
func (s *Session) WriteFrame(ctx context.Context, mt MessageType, payload []byte) error {
	if ctx.Err() != nil {
		return &aerrors.IOError{SessionID: s.ID.String(), Op: "write frame", Err: ctx.Err()}
	}
	applyDeadline(s.conn, ctx)

	ordinal := uint8(mt)
	length := uint32(len(payload))
	headerBuf := schema.EncodeHeader(&schema.Header{PayloadLength: &length, MessageType: &ordinal})
	if len(headerBuf) > schema.MaxHeaderLength {
		panic(&aerrors.ProgrammingError{Op: "transport.Session.WriteFrame", Want: "header <= 255 bytes", Got: "larger header"})
	}

	frame := make([]byte, 0, 2+len(headerBuf)+len(payload))
	frame = append(frame, frameVersion<<4)
	frame = append(frame, byte(len(headerBuf)))
	frame = append(frame, headerBuf...)
	frame = append(frame, payload...)

	if _, err := s.conn.Write(frame); err != nil {
		return &aerrors.IOError{SessionID: s.ID.String(), Op: "write frame", Err: err}
	}
	return nil
}

type unsupportedVersionError uint8

func (e unsupportedVersionError) Error() string {
	return "unsupported frame version or non-zero reserved bits"
}

type emptyHeaderError struct{}

func (emptyHeaderError) Error() string { return "zero-length header" }

type incompleteHeaderError struct{}

func (incompleteHeaderError) Error() string { return "header missing payload_length or message_type" }

type oversizedPayloadError uint32

func (e oversizedPayloadError) Error() string {
	return "payload length exceeds the 1 MiB ceiling"
}

type unknownMessageTypeError uint8

func (e unknownMessageTypeError) Error() string {
	return "unrecognized message type ordinal"
}
