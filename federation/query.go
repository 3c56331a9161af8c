package federation

import (
	"fmt"
	"sort"
	"strings"
)

// Choice is a non-empty ordered sequence of Query names whose joint
// satisfaction satisfies a dependency. The sequence is stored in
// canonical (lexicographic) order so that two Choices built from
// differently-ordered input compare equal. A query name may
// repeat within a Choice.
type Choice struct {
	queryNames []string
}

// NewChoice canonicalises names (sorts a copy) and returns the Choice.
// names must be non-empty; callers (the loader) enforce that invariant
// before construction.
func NewChoice(names []string) Choice {
	cp := append([]string(nil), names...)
	sort.Strings(cp)
	return Choice{queryNames: cp}
}

// QueryNames returns the canonical, already-sorted list of required query
// names. The returned slice must not be mutated by the caller.
func (c Choice) QueryNames() []string { return c.queryNames }

// Key returns a string uniquely identifying this Choice's canonical
// content, used to detect duplicate Choices during loading.
func (c Choice) Key() string { return strings.Join(c.queryNames, "\x00") }

// Equal reports whether c and other name the same queries in the same
// canonical order.
func (c Choice) Equal(other Choice) bool {
	return c.Key() == other.Key()
}

// Query is a named question offered by one or more nodes. It may depend
// on other queries via Choices. Invariants: at least one
// Implementor; no duplicate Implementor (a Node may repeat only with
// distinct MatchingRequirements); no duplicate Choice.
type Query struct {
	Name         string
	Implementors []Implementor
	Choices      []Choice

	// AgreementRefs is a reserved slot for data-sharing-agreement
	// cross-references. Nothing in the current wire schema populates it;
	// it exists so a future QuerySpec field has somewhere to land without
	// a breaking type change.
	AgreementRefs []string

	byNode         map[string][]Implementor
	byRequirements map[string][]Implementor
}

// NewQuery builds a Query and its secondary indices from a validated,
// already-deduplicated list of Implementors and Choices. The loader is
// responsible for rejecting duplicates before calling this constructor.
func NewQuery(name string, implementors []Implementor, choices []Choice) *Query {
	q := &Query{
		Name:           name,
		Implementors:   implementors,
		Choices:        choices,
		byNode:         make(map[string][]Implementor),
		byRequirements: make(map[string][]Implementor),
	}
	for _, impl := range implementors {
		q.byNode[impl.Node.Name] = append(q.byNode[impl.Node.Name], impl)
		q.byRequirements[requirementsKey(impl.Requirements)] = append(q.byRequirements[requirementsKey(impl.Requirements)], impl)
	}
	return q
}

// ImplementorsByNode returns the subset of Implementors attached to the
// named node (may be more than one, with distinct MatchingRequirements).
func (q *Query) ImplementorsByNode(nodeName string) []Implementor {
	return q.byNode[nodeName]
}

// ImplementorsByRequirements returns the subset of Implementors whose
// MatchingRequirements structurally equal reqs (nil means "no
// MatchingSpec was declared").
func (q *Query) ImplementorsByRequirements(reqs *MatchingRequirements) []Implementor {
	return q.byRequirements[requirementsKey(reqs)]
}

// requirementsKey builds a canonical string key for a (possibly nil)
// MatchingRequirements, used only to index the byRequirements map —
// MatchingRequirements itself is not map-keyable because it embeds slices.
func requirementsKey(r *MatchingRequirements) string {
	if r == nil {
		return "<none>"
	}
	var b strings.Builder
	writeIdentitySet := func(s IdentityAttributeSet) {
		fmt.Fprintf(&b, "%v:", s.Present)
		for _, v := range s.Values {
			fmt.Fprintf(&b, "%d,", int(v))
		}
		b.WriteByte(';')
	}
	writeIdentitySet(r.Required)
	writeIdentitySet(r.Disambiguators)
	fmt.Fprintf(&b, "%v:", r.Confidence.Present)
	for _, v := range r.Confidence.Values {
		fmt.Fprintf(&b, "%s=%s,", v.Name, v.Description)
	}
	return b.String()
}
