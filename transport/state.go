package transport

import "fmt"

// State is a position in the per-connection frame state machine. A Session
// is always in exactly one State; ReadFrame and the typed payload readers
// advance it one step at a time as bytes arrive, so a reader fed a
// connection in arbitrarily small chunks ends up in the same place a
// reader fed the whole frame at once would.
type State int

const (
	WaitingForFrame State = iota
	ReadFirstByte
	ReadHeaderLength
	WaitingForHeader
	ReadingHeader
	ParsingHeader
	WaitingForPayload
	ReadingPayload
	ReadPayload
)

func (s State) String() string {
	switch s {
	case WaitingForFrame:
		return "WAITING_FOR_FRAME"
	case ReadFirstByte:
		return "READ_FIRST_BYTE"
	case ReadHeaderLength:
		return "READ_HEADER_LENGTH"
	case WaitingForHeader:
		return "WAITING_FOR_HEADER"
	case ReadingHeader:
		return "READING_HEADER"
	case ParsingHeader:
		return "PARSING_HEADER"
	case WaitingForPayload:
		return "WAITING_FOR_PAYLOAD"
	case ReadingPayload:
		return "READING_PAYLOAD"
	case ReadPayload:
		return "READ_PAYLOAD"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
