package federation

import "sort"

// IdentityAttributeSet is an optional set of IdentityAttribute values.
// Present distinguishes "declared empty" from "not declared at all".
// Values is kept sorted by ordinal so two sets built from
// differently-ordered input compare equal.
type IdentityAttributeSet struct {
	Present bool
	Values  []IdentityAttribute
}

// NewIdentityAttributeSet builds a present set from vs, sorting a copy.
func NewIdentityAttributeSet(vs []IdentityAttribute) IdentityAttributeSet {
	cp := append([]IdentityAttribute(nil), vs...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	return IdentityAttributeSet{Present: true, Values: cp}
}

// Equal compares two sets, including their Present flag.
func (s IdentityAttributeSet) Equal(other IdentityAttributeSet) bool {
	if s.Present != other.Present {
		return false
	}
	if len(s.Values) != len(other.Values) {
		return false
	}
	for i := range s.Values {
		if s.Values[i] != other.Values[i] {
			return false
		}
	}
	return true
}

// ConfidenceAttributeSet is an optional set of ConfidenceAttribute values,
// kept sorted by name for canonical comparison.
type ConfidenceAttributeSet struct {
	Present bool
	Values  []ConfidenceAttribute
}

// NewConfidenceAttributeSet builds a present set from vs, sorting a copy.
func NewConfidenceAttributeSet(vs []ConfidenceAttribute) ConfidenceAttributeSet {
	cp := append([]ConfidenceAttribute(nil), vs...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Name < cp[j].Name })
	return ConfidenceAttributeSet{Present: true, Values: cp}
}

// Equal compares two sets, including their Present flag.
func (s ConfidenceAttributeSet) Equal(other ConfidenceAttributeSet) bool {
	if s.Present != other.Present {
		return false
	}
	if len(s.Values) != len(other.Values) {
		return false
	}
	for i := range s.Values {
		if !s.Values[i].Equal(other.Values[i]) {
			return false
		}
	}
	return true
}

// MatchingRequirements describes the identity attributes a node needs in
// order to execute a query. All three sets are optional.
type MatchingRequirements struct {
	Required       IdentityAttributeSet
	Disambiguators IdentityAttributeSet
	Confidence     ConfidenceAttributeSet
}

// Equal reports whether m and other are structurally identical.
func (m MatchingRequirements) Equal(other MatchingRequirements) bool {
	return m.Required.Equal(other.Required) &&
		m.Disambiguators.Equal(other.Disambiguators) &&
		m.Confidence.Equal(other.Confidence)
}

// Implementor pairs a Node with the (optional) MatchingRequirements it
// must satisfy to implement a Query.
type Implementor struct {
	Node         Node
	Requirements *MatchingRequirements // nil when the ImplementingNode carried no MatchingSpec
}

// Equal reports whether i and other are structurally identical.
func (i Implementor) Equal(other Implementor) bool {
	if !i.Node.Equal(other.Node) {
		return false
	}
	if (i.Requirements == nil) != (other.Requirements == nil) {
		return false
	}
	if i.Requirements == nil {
		return true
	}
	return i.Requirements.Equal(*other.Requirements)
}
