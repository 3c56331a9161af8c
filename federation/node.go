package federation

// Node is a federation peer: identified by name and TLS public key,
// located at (hostname, port). Equality is structural over all four
// fields.
type Node struct {
	Name       string
	Hostname   string
	Port       int
	TLSCertPEM []byte
}

// Equal reports whether n and other have identical fields. Go has no
// built-in structural equality for slices, so this is the explicit form
// of structural equality for a type that embeds one.
func (n Node) Equal(other Node) bool {
	if n.Name != other.Name || n.Hostname != other.Hostname || n.Port != other.Port {
		return false
	}
	if len(n.TLSCertPEM) != len(other.TLSCertPEM) {
		return false
	}
	for i := range n.TLSCertPEM {
		if n.TLSCertPEM[i] != other.TLSCertPEM[i] {
			return false
		}
	}
	return true
}

// TLSKey returns the certificate bytes verbatim, treated as an opaque
// byte string and used to index nodes by TLS public key in a Snapshot.
func (n Node) TLSKey() string {
	return string(n.TLSCertPEM)
}
