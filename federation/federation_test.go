package federation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestNodeEqualIsStructural(t *testing.T) {
	a := Node{Name: "A", Hostname: "a.example.org", Port: 443, TLSCertPEM: []byte("cert-a")}
	b := Node{Name: "A", Hostname: "a.example.org", Port: 443, TLSCertPEM: []byte("cert-a")}
	c := Node{Name: "A", Hostname: "a.example.org", Port: 444, TLSCertPEM: []byte("cert-a")}

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.Empty(t, cmp.Diff(a, b, cmpopts.EquateComparable()))
}

func TestIdentityAttributeSetDistinguishesAbsentFromEmpty(t *testing.T) {
	var absent IdentityAttributeSet
	empty := NewIdentityAttributeSet(nil)

	require.False(t, absent.Present)
	require.True(t, empty.Present)
	require.False(t, absent.Equal(empty))
}

func TestIdentityAttributeSetOrderIndependent(t *testing.T) {
	s1 := NewIdentityAttributeSet([]IdentityAttribute{DateOfBirth, Surname, Postcode})
	s2 := NewIdentityAttributeSet([]IdentityAttribute{Postcode, Surname, DateOfBirth})
	require.True(t, s1.Equal(s2))
}

func TestChoiceCanonicalisation(t *testing.T) {
	c1 := NewChoice([]string{"b?", "a?", "c?"})
	c2 := NewChoice([]string{"c?", "a?", "b?"})
	require.True(t, c1.Equal(c2))
	require.Equal(t, []string{"a?", "b?", "c?"}, c1.QueryNames())
}

func TestQuerySecondaryIndices(t *testing.T) {
	nodeA := Node{Name: "A", Hostname: "a.example.org", Port: 443, TLSCertPEM: []byte("cert-a")}
	nodeB := Node{Name: "B", Hostname: "b.example.org", Port: 443, TLSCertPEM: []byte("cert-b")}
	reqs := &MatchingRequirements{
		Required: NewIdentityAttributeSet([]IdentityAttribute{Surname, Postcode}),
	}

	q := NewQuery("bb?", []Implementor{
		{Node: nodeA, Requirements: reqs},
		{Node: nodeB, Requirements: nil},
	}, nil)

	require.Len(t, q.ImplementorsByNode("A"), 1)
	require.Len(t, q.ImplementorsByNode("B"), 1)
	require.Empty(t, q.ImplementorsByNode("C"))

	require.Len(t, q.ImplementorsByRequirements(reqs), 1)
	require.Len(t, q.ImplementorsByRequirements(nil), 1)
}

func TestSnapshotLookups(t *testing.T) {
	nodeA := Node{Name: "A", Hostname: "a.example.org", Port: 443, TLSCertPEM: []byte("cert-a")}
	nodeB := Node{Name: "B", Hostname: "b.example.org", Port: 443, TLSCertPEM: []byte("cert-b")}
	confA := ConfidenceAttribute{Name: "confA", Description: "supplementary id"}
	q := NewQuery("bb?", []Implementor{{Node: nodeA}, {Node: nodeB}}, nil)
	agreement := &Agreement{Key: "dsa-0", Justification: "pilot programme"}

	snap := NewSnapshot([]Node{nodeA, nodeB}, []ConfidenceAttribute{confA}, []*Query{q}, []*Agreement{agreement})

	found, ok := snap.FindQuery("bb?")
	require.True(t, ok)
	names := []string{found.Implementors[0].Node.Name, found.Implementors[1].Node.Name}
	require.ElementsMatch(t, []string{"A", "B"}, names)

	n, ok := snap.FindNodeByTLSKey([]byte("cert-b"))
	require.True(t, ok)
	require.Equal(t, "B", n.Name)

	_, ok = snap.FindQuery("missing?")
	require.False(t, ok)

	a, ok := snap.FindAgreement("dsa-0")
	require.True(t, ok)
	require.Equal(t, "pilot programme", a.Justification)

	require.Equal(t, 2, snap.NodeCount())
	require.Equal(t, 1, snap.QueryCount())
	require.Equal(t, 1, snap.AgreementCount())
}
