// Package schema defines the canonical, wire-independent shape of every
// message and of the federation metadata file. It is deliberately thin:
// no validation, no cross-reference resolution, no domain semantics — that
// is internal/metadata's and transport's job. schema only says what a
// record looks like.
package schema

// NodeRecord is the wire shape of one Node declaration in a metadata file.
type NodeRecord struct {
	Name       *string
	Hostname   *string
	Port       *uint32
	TLSCertPEM []byte
}

// DSARecord is the wire shape of one data-sharing agreement declaration.
type DSARecord struct {
	Justification *string
}

// ConfidenceAttributeRecord is the wire shape of one confidence attribute
// declaration.
type ConfidenceAttributeRecord struct {
	Name        *string
	Description *string
}

// MatchingSpecRecord is the wire shape of the optional matching
// requirements attached to an ImplementingNodeRecord. Required,
// Disambiguators and ConfidenceBuilders are nil when the corresponding
// list was absent from the wire record (as opposed to present-but-empty,
// which is represented by a non-nil zero-length slice).
type MatchingSpecRecord struct {
	Required           []uint8 // IdFields ordinals
	Disambiguators     []uint8 // IdFields ordinals
	ConfidenceBuilders []string
}

// ImplementingNodeRecord is the wire shape of one node implementing a
// query.
type ImplementingNodeRecord struct {
	NodeID       *string
	MatchingSpec *MatchingSpecRecord
}

// ChoiceRecord is the wire shape of one Choice: a list of required-query
// names.
type ChoiceRecord struct {
	RequiredQueryNames []string
}

// QuerySpecRecord is the wire shape of one query declaration.
type QuerySpecRecord struct {
	Name             *string
	ImplementingNode []ImplementingNodeRecord
	Choice           []ChoiceRecord
}

// FederationRecord is the wire shape of the whole metadata file: the
// single root record decoded by DecodeFederation.
type FederationRecord struct {
	Node                []NodeRecord
	DSA                 []DSARecord
	ConfidenceAttribute []ConfidenceAttributeRecord
	QuerySpec           []QuerySpecRecord
}

// Header is the wire shape of a frame header: payload length and message
// type. Both are required fields: DecodeHeader leaves a missing one nil,
// and the transport layer rejects such a header as a peer error.
type Header struct {
	PayloadLength *uint32
	MessageType   *uint8
}

// MaxPayloadLength is the resource ceiling on a single frame's payload, in
// bytes, enforced before any payload byte is allocated or read.
const MaxPayloadLength = 1 << 20 // 1 MiB

// MaxHeaderLength is the largest header-length byte value; a Header must
// decode from no more than this many bytes.
const MaxHeaderLength = 255

// IdentitySignRequestRecord is the wire shape of an IDENTITY_SIGN_REQUEST
// payload: the subject identity plus the node names composing the
// identity set.
type IdentitySignRequestRecord struct {
	SubjectIdentity []byte
	IdentitySetNode []string
}
