package transport

import "fmt"

// MessageType is the closed enumeration of wire message types. Ordinal
// assignment (0..6, in this order) is the wire contract.
type MessageType uint8

const (
	IdentitySignRequest MessageType = iota
	SignedQuery
	BadQueryResponse
	QueryResponse
	SecondWhistle
	QueryAnswer
	Finish

	messageTypeCount // sentinel
)

func (t MessageType) String() string {
	switch t {
	case IdentitySignRequest:
		return "IDENTITY_SIGN_REQUEST"
	case SignedQuery:
		return "SIGNED_QUERY"
	case BadQueryResponse:
		return "BAD_QUERY_RESPONSE"
	case QueryResponse:
		return "QUERY_RESPONSE"
	case SecondWhistle:
		return "SECOND_WHISTLE"
	case QueryAnswer:
		return "QUERY_ANSWER"
	case Finish:
		return "FINISH"
	default:
		return fmt.Sprintf("MessageType(%d)", uint8(t))
	}
}

// wireToMessageType is the explicit ordinal→variant table called for by
// the ordinal-coupling redesign: a wire ordinal with no entry here is a
// decode error rather than an unchecked cast that would silently
// mis-decode if the enum were ever reordered.
var wireToMessageType = buildWireToMessageTypeTable()

func buildWireToMessageTypeTable() map[uint8]MessageType {
	return map[uint8]MessageType{
		0: IdentitySignRequest,
		1: SignedQuery,
		2: BadQueryResponse,
		3: QueryResponse,
		4: SecondWhistle,
		5: QueryAnswer,
		6: Finish,
	}
}

// messageTypeFromWire resolves a wire ordinal to a MessageType, or reports
// that the ordinal is out of range.
func messageTypeFromWire(ordinal uint8) (MessageType, bool) {
	t, ok := wireToMessageType[ordinal]
	return t, ok
}
