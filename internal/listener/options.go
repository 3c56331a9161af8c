package listener

import (
	"crypto/tls"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/aquaenet/aquaed/federation"
)

// Option configures a Listener's Config before it is validated and the
// underlying socket is opened. Following the functional-options pattern
// keeps New's required arguments to the three that always matter
// (identity, port, snapshot) while letting callers add TLS, a handler, or
// an offered-query list only when they have one.
type Option func(*Config)

// WithTLSConfig arranges for the listener's socket to require mutually
// authenticated TLS rather than plain TCP.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Config) { c.TLSConfig = cfg }
}

// WithHandler sets the frame handler invoked for every decoded frame. A
// Listener with no handler logs a warning and drops each connection
// after its first frame.
func WithHandler(h Handler) Option {
	return func(c *Config) { c.Handler = h }
}

// WithOfferedQueries restricts (for documentation and warning purposes)
// which of the node's queries this listener advertises as offered.
func WithOfferedQueries(names ...string) Option {
	return func(c *Config) { c.OfferedQueries = names }
}

// NewFromOptions builds a Listener for nodeName on port, bound to
// snapshot, applying opts in order.
func NewFromOptions(nodeName string, port int, snapshot *federation.Snapshot, reg prometheus.Registerer, log *logrus.Logger, opts ...Option) (*Listener, error) {
	cfg := Config{NodeName: nodeName, Port: port, Snapshot: snapshot}
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg, reg, log)
}
