package schema

import (
	"fmt"

	"github.com/aquaenet/aquaed/internal/wire"
)

// Tag assignments below are the wire contract for this package's records.
// They are local to each record's own nested TLV stream, so NodeRecord's
// tag 1 means something different from ChoiceRecord's tag 1 — nesting via
// wire.Record gives every record its own tag namespace.
const (
	tagFedNode                = 1
	tagFedDSA                 = 2
	tagFedConfidenceAttribute = 3
	tagFedQuerySpec           = 4

	tagNodeName       = 1
	tagNodeHostname   = 2
	tagNodePort       = 3
	tagNodeTLSCertPEM = 4

	tagDSAJustification = 1

	tagConfAttrName        = 1
	tagConfAttrDescription = 2

	tagMatchRequiredPresent       = 1
	tagMatchRequiredValue         = 2
	tagMatchDisambiguatorsPresent = 3
	tagMatchDisambiguatorsValue   = 4
	tagMatchConfBuildersPresent   = 5
	tagMatchConfBuildersValue     = 6

	tagImplNodeID         = 1
	tagImplMatchingSpec   = 2

	tagChoiceRequiredQueryName = 1

	tagQuerySpecName             = 1
	tagQuerySpecImplementingNode = 2
	tagQuerySpecChoice           = 3

	tagHeaderPayloadLength = 1
	tagHeaderMessageType   = 2

	tagISRSubjectIdentity = 1
	tagISRIdentitySetNode = 2
)

// EncodeFederation serialises a FederationRecord to its wire form.
func EncodeFederation(f *FederationRecord) []byte {
	w := wire.NewWriter()
	for i := range f.Node {
		w.PutRecord(tagFedNode, encodeNode(&f.Node[i]))
	}
	for i := range f.DSA {
		w.PutRecord(tagFedDSA, encodeDSA(&f.DSA[i]))
	}
	for i := range f.ConfidenceAttribute {
		w.PutRecord(tagFedConfidenceAttribute, encodeConfidenceAttribute(&f.ConfidenceAttribute[i]))
	}
	for i := range f.QuerySpec {
		w.PutRecord(tagFedQuerySpec, encodeQuerySpec(&f.QuerySpec[i]))
	}
	return w.Bytes()
}

// DecodeFederation parses buf as a FederationRecord.
func DecodeFederation(buf []byte) (*FederationRecord, error) {
	fields, err := wire.ReadAll(buf)
	if err != nil {
		return nil, fmt.Errorf("schema: decode federation: %w", err)
	}
	f := &FederationRecord{}
	for _, fld := range fields {
		switch fld.Tag {
		case tagFedNode:
			n, err := decodeNode(fld.Record)
			if err != nil {
				return nil, err
			}
			f.Node = append(f.Node, *n)
		case tagFedDSA:
			d, err := decodeDSA(fld.Record)
			if err != nil {
				return nil, err
			}
			f.DSA = append(f.DSA, *d)
		case tagFedConfidenceAttribute:
			c, err := decodeConfidenceAttribute(fld.Record)
			if err != nil {
				return nil, err
			}
			f.ConfidenceAttribute = append(f.ConfidenceAttribute, *c)
		case tagFedQuerySpec:
			q, err := decodeQuerySpec(fld.Record)
			if err != nil {
				return nil, err
			}
			f.QuerySpec = append(f.QuerySpec, *q)
		default:
			// Unknown top-level tag: skip for forward compatibility.
		}
	}
	return f, nil
}

func encodeNode(n *NodeRecord) *wire.Writer {
	w := wire.NewWriter()
	putOptString(w, tagNodeName, n.Name)
	putOptString(w, tagNodeHostname, n.Hostname)
	if n.Port != nil {
		w.PutVarint(tagNodePort, uint64(*n.Port))
	}
	if n.TLSCertPEM != nil {
		w.PutBytes(tagNodeTLSCertPEM, n.TLSCertPEM)
	}
	return w
}

func decodeNode(buf []byte) (*NodeRecord, error) {
	fields, err := wire.ReadAll(buf)
	if err != nil {
		return nil, fmt.Errorf("schema: decode Node: %w", err)
	}
	n := &NodeRecord{}
	for _, f := range fields {
		switch f.Tag {
		case tagNodeName:
			n.Name = strPtr(f.Bytes)
		case tagNodeHostname:
			n.Hostname = strPtr(f.Bytes)
		case tagNodePort:
			p := uint32(f.Varint)
			n.Port = &p
		case tagNodeTLSCertPEM:
			n.TLSCertPEM = f.Bytes
		}
	}
	return n, nil
}

func encodeDSA(d *DSARecord) *wire.Writer {
	w := wire.NewWriter()
	putOptString(w, tagDSAJustification, d.Justification)
	return w
}

func decodeDSA(buf []byte) (*DSARecord, error) {
	fields, err := wire.ReadAll(buf)
	if err != nil {
		return nil, fmt.Errorf("schema: decode DSA: %w", err)
	}
	d := &DSARecord{}
	for _, f := range fields {
		if f.Tag == tagDSAJustification {
			d.Justification = strPtr(f.Bytes)
		}
	}
	return d, nil
}

func encodeConfidenceAttribute(c *ConfidenceAttributeRecord) *wire.Writer {
	w := wire.NewWriter()
	putOptString(w, tagConfAttrName, c.Name)
	putOptString(w, tagConfAttrDescription, c.Description)
	return w
}

func decodeConfidenceAttribute(buf []byte) (*ConfidenceAttributeRecord, error) {
	fields, err := wire.ReadAll(buf)
	if err != nil {
		return nil, fmt.Errorf("schema: decode ConfidenceAttribute: %w", err)
	}
	c := &ConfidenceAttributeRecord{}
	for _, f := range fields {
		switch f.Tag {
		case tagConfAttrName:
			c.Name = strPtr(f.Bytes)
		case tagConfAttrDescription:
			c.Description = strPtr(f.Bytes)
		}
	}
	return c, nil
}

func encodeMatchingSpec(m *MatchingSpecRecord) *wire.Writer {
	w := wire.NewWriter()
	if m.Required != nil {
		w.PutVarint(tagMatchRequiredPresent, 1)
		for _, v := range m.Required {
			w.PutVarint(tagMatchRequiredValue, uint64(v))
		}
	}
	if m.Disambiguators != nil {
		w.PutVarint(tagMatchDisambiguatorsPresent, 1)
		for _, v := range m.Disambiguators {
			w.PutVarint(tagMatchDisambiguatorsValue, uint64(v))
		}
	}
	if m.ConfidenceBuilders != nil {
		w.PutVarint(tagMatchConfBuildersPresent, 1)
		for _, v := range m.ConfidenceBuilders {
			w.PutBytes(tagMatchConfBuildersValue, []byte(v))
		}
	}
	return w
}

func decodeMatchingSpec(buf []byte) (*MatchingSpecRecord, error) {
	fields, err := wire.ReadAll(buf)
	if err != nil {
		return nil, fmt.Errorf("schema: decode MatchingSpec: %w", err)
	}
	m := &MatchingSpecRecord{}
	for _, f := range fields {
		switch f.Tag {
		case tagMatchRequiredPresent:
			if m.Required == nil {
				m.Required = []uint8{}
			}
		case tagMatchRequiredValue:
			m.Required = append(m.Required, uint8(f.Varint))
		case tagMatchDisambiguatorsPresent:
			if m.Disambiguators == nil {
				m.Disambiguators = []uint8{}
			}
		case tagMatchDisambiguatorsValue:
			m.Disambiguators = append(m.Disambiguators, uint8(f.Varint))
		case tagMatchConfBuildersPresent:
			if m.ConfidenceBuilders == nil {
				m.ConfidenceBuilders = []string{}
			}
		case tagMatchConfBuildersValue:
			m.ConfidenceBuilders = append(m.ConfidenceBuilders, string(f.Bytes))
		}
	}
	return m, nil
}

func encodeImplementingNode(n *ImplementingNodeRecord) *wire.Writer {
	w := wire.NewWriter()
	putOptString(w, tagImplNodeID, n.NodeID)
	if n.MatchingSpec != nil {
		w.PutRecord(tagImplMatchingSpec, encodeMatchingSpec(n.MatchingSpec))
	}
	return w
}

func decodeImplementingNode(buf []byte) (*ImplementingNodeRecord, error) {
	fields, err := wire.ReadAll(buf)
	if err != nil {
		return nil, fmt.Errorf("schema: decode ImplementingNode: %w", err)
	}
	n := &ImplementingNodeRecord{}
	for _, f := range fields {
		switch f.Tag {
		case tagImplNodeID:
			n.NodeID = strPtr(f.Bytes)
		case tagImplMatchingSpec:
			spec, err := decodeMatchingSpec(f.Record)
			if err != nil {
				return nil, err
			}
			n.MatchingSpec = spec
		}
	}
	return n, nil
}

func encodeChoice(c *ChoiceRecord) *wire.Writer {
	w := wire.NewWriter()
	for _, name := range c.RequiredQueryNames {
		w.PutBytes(tagChoiceRequiredQueryName, []byte(name))
	}
	return w
}

func decodeChoice(buf []byte) (*ChoiceRecord, error) {
	fields, err := wire.ReadAll(buf)
	if err != nil {
		return nil, fmt.Errorf("schema: decode Choice: %w", err)
	}
	c := &ChoiceRecord{}
	for _, f := range fields {
		if f.Tag == tagChoiceRequiredQueryName {
			c.RequiredQueryNames = append(c.RequiredQueryNames, string(f.Bytes))
		}
	}
	return c, nil
}

func encodeQuerySpec(q *QuerySpecRecord) *wire.Writer {
	w := wire.NewWriter()
	putOptString(w, tagQuerySpecName, q.Name)
	for i := range q.ImplementingNode {
		w.PutRecord(tagQuerySpecImplementingNode, encodeImplementingNode(&q.ImplementingNode[i]))
	}
	for i := range q.Choice {
		w.PutRecord(tagQuerySpecChoice, encodeChoice(&q.Choice[i]))
	}
	return w
}

func decodeQuerySpec(buf []byte) (*QuerySpecRecord, error) {
	fields, err := wire.ReadAll(buf)
	if err != nil {
		return nil, fmt.Errorf("schema: decode QuerySpec: %w", err)
	}
	q := &QuerySpecRecord{}
	for _, f := range fields {
		switch f.Tag {
		case tagQuerySpecName:
			q.Name = strPtr(f.Bytes)
		case tagQuerySpecImplementingNode:
			n, err := decodeImplementingNode(f.Record)
			if err != nil {
				return nil, err
			}
			q.ImplementingNode = append(q.ImplementingNode, *n)
		case tagQuerySpecChoice:
			c, err := decodeChoice(f.Record)
			if err != nil {
				return nil, err
			}
			q.Choice = append(q.Choice, *c)
		}
	}
	return q, nil
}

// EncodeHeader serialises a frame Header to its wire form.
func EncodeHeader(h *Header) []byte {
	w := wire.NewWriter()
	if h.PayloadLength != nil {
		w.PutVarint(tagHeaderPayloadLength, uint64(*h.PayloadLength))
	}
	if h.MessageType != nil {
		w.PutVarint(tagHeaderMessageType, uint64(*h.MessageType))
	}
	return w.Bytes()
}

// DecodeHeader parses buf as a Header.
func DecodeHeader(buf []byte) (*Header, error) {
	fields, err := wire.ReadAll(buf)
	if err != nil {
		return nil, fmt.Errorf("schema: decode Header: %w", err)
	}
	h := &Header{}
	for _, f := range fields {
		switch f.Tag {
		case tagHeaderPayloadLength:
			v := uint32(f.Varint)
			h.PayloadLength = &v
		case tagHeaderMessageType:
			v := uint8(f.Varint)
			h.MessageType = &v
		}
	}
	return h, nil
}

// EncodeIdentitySignRequest serialises an IdentitySignRequestRecord.
func EncodeIdentitySignRequest(r *IdentitySignRequestRecord) []byte {
	w := wire.NewWriter()
	if r.SubjectIdentity != nil {
		w.PutBytes(tagISRSubjectIdentity, r.SubjectIdentity)
	}
	for _, name := range r.IdentitySetNode {
		w.PutBytes(tagISRIdentitySetNode, []byte(name))
	}
	return w.Bytes()
}

// DecodeIdentitySignRequest parses buf as an IdentitySignRequestRecord.
func DecodeIdentitySignRequest(buf []byte) (*IdentitySignRequestRecord, error) {
	fields, err := wire.ReadAll(buf)
	if err != nil {
		return nil, fmt.Errorf("schema: decode IdentitySignRequest: %w", err)
	}
	r := &IdentitySignRequestRecord{}
	for _, f := range fields {
		switch f.Tag {
		case tagISRSubjectIdentity:
			r.SubjectIdentity = f.Bytes
		case tagISRIdentitySetNode:
			r.IdentitySetNode = append(r.IdentitySetNode, string(f.Bytes))
		}
	}
	return r, nil
}

func putOptString(w *wire.Writer, tag uint8, s *string) {
	if s != nil {
		w.PutBytes(tag, []byte(*s))
	}
}

func strPtr(b []byte) *string {
	s := string(b)
	return &s
}
