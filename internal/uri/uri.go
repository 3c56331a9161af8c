// Package uri validates and formats aquae:// node endpoints. A Node's
// hostname must parse as the host component of a URI and round-trip equal
// to the input. golang.org/x/net's idna package is used here to reject
// hostnames that are syntactically a valid URI host but not a valid
// (possibly internationalised) domain name.
package uri

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ValidateHost reports whether host parses as the host component of a URI
// and round-trips to exactly the same string, and is a well-formed
// (possibly internationalised) domain name or IP literal.
func ValidateHost(host string) error {
	if host == "" {
		return fmt.Errorf("uri: empty hostname")
	}

	// Build a throwaway URL using host as the authority and confirm the
	// parser hands the same host back out. An IPv6 literal is a URI host
	// only inside brackets; Hostname strips them again before comparing.
	authority := host
	if isIPLiteral(host) && strings.Contains(host, ":") {
		authority = "[" + host + "]"
	}
	u, err := url.Parse("aquae://" + authority + "/")
	if err != nil {
		return fmt.Errorf("uri: hostname %q does not parse as a URI host: %w", host, err)
	}
	if u.Hostname() != host {
		return fmt.Errorf("uri: hostname %q does not round-trip (parsed as %q)", host, u.Hostname())
	}

	// Accept IP literals outright; idna only validates domain names.
	if isIPLiteral(host) {
		return nil
	}
	if _, err := idna.Lookup.ToASCII(host); err != nil {
		return fmt.Errorf("uri: hostname %q is not a valid domain name: %w", host, err)
	}
	return nil
}

func isIPLiteral(host string) bool {
	return net.ParseIP(host) != nil
}

// FormatNodeURI renders the aquae://<host>:<port>/ form a listener prints
// on its readiness line.
func FormatNodeURI(host string, port int) string {
	return fmt.Sprintf("aquae://%s:%d/", host, port)
}
