// Package metadata loads a federation description from its on-disk
// encoding into a validated, fully cross-referenced federation.Snapshot.
// Loading happens in phases — decode, intern nodes, intern confidence
// attributes, intern agreements, build queries — each phase completing
// before the next, so a query resolves nodes and confidence attributes
// declared anywhere in the file, while a Choice may reference only queries
// declared before its own query.
package metadata

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aquaenet/aquaed/federation"
	"github.com/aquaenet/aquaed/internal/aerrors"
	"github.com/aquaenet/aquaed/internal/schema"
	"github.com/aquaenet/aquaed/internal/uri"
)

// identityOrdinalTable is the explicit wire-ordinal -> IdentityAttribute
// mapping. A raw cast (federation.IdentityAttribute(ordinal)) would
// silently mis-decode the moment the enum is reordered; this table binds
// each wire ordinal to its named variant instead, and an ordinal with no
// entry is a load-time MetadataError.
var identityOrdinalTable = buildIdentityOrdinalTable()

func buildIdentityOrdinalTable() map[uint8]federation.IdentityAttribute {
	return map[uint8]federation.IdentityAttribute{
		0: federation.Surname,
		1: federation.Postcode,
		2: federation.YearOfBirth,
		3: federation.Initials,
		4: federation.HouseNumber,
		5: federation.DateOfBirth,
	}
}

// Load reads and parses the federation description at path.
func Load(path string) (*federation.Snapshot, error) {
	logrus.WithField("file", path).Debug("metadata: reading file")
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, &aerrors.ConfigError{File: path, Field: "metadata_file", Err: errors.Wrapf(err, "reading metadata file %q", path)}
	}
	return LoadBytes(path, buf)
}

// LoadBytes parses an already-read federation description. file is used
// only to label errors.
func LoadBytes(file string, buf []byte) (*federation.Snapshot, error) {
	log := logrus.WithField("file", file)

	log.Debug("metadata: decoding")
	rec, err := schema.DecodeFederation(buf)
	if err != nil {
		return nil, &aerrors.MetadataError{File: file, RecordKind: "federation", Err: errors.Wrap(err, "decoding federation record")}
	}

	log.WithField("count", len(rec.Node)).Debug("metadata: interning nodes")
	nodes, err := internNodes(file, rec.Node)
	if err != nil {
		return nil, err
	}
	log.WithField("count", len(rec.ConfidenceAttribute)).Debug("metadata: interning confidence attributes")
	confidence, err := internConfidenceAttributes(file, rec.ConfidenceAttribute)
	if err != nil {
		return nil, err
	}
	log.WithField("count", len(rec.DSA)).Debug("metadata: interning agreements")
	agreements, err := internAgreements(file, rec.DSA)
	if err != nil {
		return nil, err
	}
	log.WithField("count", len(rec.QuerySpec)).Debug("metadata: building queries")
	queries, err := buildQueries(file, rec.QuerySpec, nodes, confidence)
	if err != nil {
		return nil, err
	}

	nodeList := make([]federation.Node, 0, len(nodes))
	for _, n := range nodes {
		nodeList = append(nodeList, n)
	}
	confList := make([]federation.ConfidenceAttribute, 0, len(confidence))
	for _, c := range confidence {
		confList = append(confList, c)
	}
	return federation.NewSnapshot(nodeList, confList, queries, agreements), nil
}

func internNodes(file string, recs []schema.NodeRecord) (map[string]federation.Node, error) {
	nodes := make(map[string]federation.Node, len(recs))
	seenTLSKeys := make(map[string]string, len(recs))
	for i, r := range recs {
		label := fmt.Sprintf("node[%d]", i)
		if r.Name == nil || *r.Name == "" {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "node", RecordName: label, Field: "name", Err: errMissingField}
		}
		name := *r.Name
		if _, exists := nodes[name]; exists {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "node", RecordName: name, Err: errDuplicateRecord}
		}
		if r.Hostname == nil || *r.Hostname == "" {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "node", RecordName: name, Field: "hostname", Err: errMissingField}
		}
		if err := uri.ValidateHost(*r.Hostname); err != nil {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "node", RecordName: name, Field: "hostname", Err: err}
		}
		if r.Port == nil || *r.Port == 0 || *r.Port > 65535 {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "node", RecordName: name, Field: "port", Err: errInvalidPort}
		}
		if len(r.TLSCertPEM) == 0 {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "node", RecordName: name, Field: "tls_cert", Err: errMissingField}
		}
		tlsKey := string(r.TLSCertPEM)
		if other, exists := seenTLSKeys[tlsKey]; exists {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "node", RecordName: name, Field: "tls_cert", Err: errDuplicateTLSKey(other)}
		}
		seenTLSKeys[tlsKey] = name
		nodes[name] = federation.Node{
			Name:       name,
			Hostname:   *r.Hostname,
			Port:       int(*r.Port),
			TLSCertPEM: append([]byte(nil), r.TLSCertPEM...),
		}
	}
	return nodes, nil
}

func internConfidenceAttributes(file string, recs []schema.ConfidenceAttributeRecord) (map[string]federation.ConfidenceAttribute, error) {
	out := make(map[string]federation.ConfidenceAttribute, len(recs))
	for i, r := range recs {
		label := fmt.Sprintf("confidence_attribute[%d]", i)
		if r.Name == nil || *r.Name == "" {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "confidence_attribute", RecordName: label, Field: "name", Err: errMissingField}
		}
		name := *r.Name
		if _, exists := out[name]; exists {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "confidence_attribute", RecordName: name, Err: errDuplicateRecord}
		}
		desc := ""
		if r.Description != nil {
			desc = *r.Description
		}
		out[name] = federation.ConfidenceAttribute{Name: name, Description: desc}
	}
	return out, nil
}

func internAgreements(file string, recs []schema.DSARecord) ([]*federation.Agreement, error) {
	out := make([]*federation.Agreement, 0, len(recs))
	for i, r := range recs {
		justification := ""
		if r.Justification != nil {
			justification = *r.Justification
		}
		out = append(out, &federation.Agreement{
			Key:           fmt.Sprintf("dsa-%d", i+1),
			Justification: justification,
		})
	}
	return out, nil
}

// buildQueries walks QuerySpec records in file order, interning one Query
// at a time. definedQueries tracks only queries already built, so a
// Choice may reference queries declared earlier in the file but never
// queries declared later — forward references are rejected rather than
// silently resolved out of order.
func buildQueries(
	file string,
	recs []schema.QuerySpecRecord,
	nodes map[string]federation.Node,
	confidence map[string]federation.ConfidenceAttribute,
) ([]*federation.Query, error) {
	out := make([]*federation.Query, 0, len(recs))
	defined := make(map[string]bool, len(recs))

	for i, r := range recs {
		label := fmt.Sprintf("query[%d]", i)
		if r.Name == nil || *r.Name == "" {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "query", RecordName: label, Field: "name", Err: errMissingField}
		}
		name := *r.Name
		if defined[name] {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "query", RecordName: name, Err: errDuplicateRecord}
		}

		implementors, err := buildImplementors(file, name, r.ImplementingNode, nodes, confidence)
		if err != nil {
			return nil, err
		}
		if len(implementors) == 0 {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "query", RecordName: name, Field: "implementing_node", Err: errEmptyRequiredList}
		}

		choices, err := buildChoices(file, name, r.Choice, defined)
		if err != nil {
			return nil, err
		}

		out = append(out, federation.NewQuery(name, implementors, choices))
		defined[name] = true
	}
	return out, nil
}

func buildImplementors(
	file, queryName string,
	recs []schema.ImplementingNodeRecord,
	nodes map[string]federation.Node,
	confidence map[string]federation.ConfidenceAttribute,
) ([]federation.Implementor, error) {
	out := make([]federation.Implementor, 0, len(recs))
	seen := make(map[string]bool, len(recs))

	for i, r := range recs {
		label := fmt.Sprintf("query[%s].implementing_node[%d]", queryName, i)
		if r.NodeID == nil || *r.NodeID == "" {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "implementing_node", RecordName: label, Field: "node_id", Err: errMissingField}
		}
		node, ok := nodes[*r.NodeID]
		if !ok {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "implementing_node", RecordName: label, Field: "node_id", Err: errUnresolvedReference(*r.NodeID)}
		}

		var requirements *federation.MatchingRequirements
		if r.MatchingSpec != nil {
			mr, err := buildMatchingRequirements(file, label, r.MatchingSpec, confidence)
			if err != nil {
				return nil, err
			}
			requirements = mr
		}

		impl := federation.Implementor{Node: node, Requirements: requirements}
		dedupeKey := implementorDedupeKey(impl)
		if seen[dedupeKey] {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "implementing_node", RecordName: label, Err: errDuplicateRecord}
		}
		seen[dedupeKey] = true
		out = append(out, impl)
	}
	return out, nil
}

func buildMatchingRequirements(
	file, label string,
	r *schema.MatchingSpecRecord,
	confidence map[string]federation.ConfidenceAttribute,
) (*federation.MatchingRequirements, error) {
	required, err := translateIdentitySet(file, label, "required", r.Required)
	if err != nil {
		return nil, err
	}
	disambiguators, err := translateIdentitySet(file, label, "disambiguators", r.Disambiguators)
	if err != nil {
		return nil, err
	}
	confSet, err := translateConfidenceSet(file, label, r.ConfidenceBuilders, confidence)
	if err != nil {
		return nil, err
	}
	return &federation.MatchingRequirements{
		Required:       required,
		Disambiguators: disambiguators,
		Confidence:     confSet,
	}, nil
}

func translateIdentitySet(file, label, field string, ordinals []uint8) (federation.IdentityAttributeSet, error) {
	if ordinals == nil {
		return federation.IdentityAttributeSet{}, nil
	}
	values := make([]federation.IdentityAttribute, 0, len(ordinals))
	seen := make(map[uint8]bool, len(ordinals))
	for _, ord := range ordinals {
		if seen[ord] {
			return federation.IdentityAttributeSet{}, &aerrors.MetadataError{File: file, RecordKind: "matching_spec", RecordName: label, Field: field, Err: errDuplicateListEntry}
		}
		seen[ord] = true
		attr, ok := identityOrdinalTable[ord]
		if !ok {
			return federation.IdentityAttributeSet{}, &aerrors.MetadataError{File: file, RecordKind: "matching_spec", RecordName: label, Field: field, Err: errUnknownOrdinal(ord)}
		}
		values = append(values, attr)
	}
	return federation.NewIdentityAttributeSet(values), nil
}

func translateConfidenceSet(file, label string, names []string, confidence map[string]federation.ConfidenceAttribute) (federation.ConfidenceAttributeSet, error) {
	if names == nil {
		return federation.ConfidenceAttributeSet{}, nil
	}
	values := make([]federation.ConfidenceAttribute, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return federation.ConfidenceAttributeSet{}, &aerrors.MetadataError{File: file, RecordKind: "matching_spec", RecordName: label, Field: "confidence_builders", Err: errDuplicateListEntry}
		}
		seen[n] = true
		c, ok := confidence[n]
		if !ok {
			return federation.ConfidenceAttributeSet{}, &aerrors.MetadataError{File: file, RecordKind: "matching_spec", RecordName: label, Field: "confidence_builders", Err: errUnresolvedReference(n)}
		}
		values = append(values, c)
	}
	return federation.NewConfidenceAttributeSet(values), nil
}

func buildChoices(file, queryName string, recs []schema.ChoiceRecord, definedQueries map[string]bool) ([]federation.Choice, error) {
	out := make([]federation.Choice, 0, len(recs))
	seen := make(map[string]bool, len(recs))

	for i, r := range recs {
		label := fmt.Sprintf("query[%s].choice[%d]", queryName, i)
		if len(r.RequiredQueryNames) == 0 {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "choice", RecordName: label, Err: errEmptyRequiredList}
		}
		for _, dep := range r.RequiredQueryNames {
			if !definedQueries[dep] {
				return nil, &aerrors.MetadataError{File: file, RecordKind: "choice", RecordName: label, Field: "required_query_names", Err: errForwardReference(dep)}
			}
		}
		choice := federation.NewChoice(r.RequiredQueryNames)
		if seen[choice.Key()] {
			return nil, &aerrors.MetadataError{File: file, RecordKind: "choice", RecordName: label, Err: errDuplicateRecord}
		}
		seen[choice.Key()] = true
		out = append(out, choice)
	}
	return out, nil
}

func implementorDedupeKey(impl federation.Implementor) string {
	key := impl.Node.Name
	if impl.Requirements == nil {
		return key + "\x00<none>"
	}
	return key + "\x00" + fmt.Sprintf("%+v", *impl.Requirements)
}
