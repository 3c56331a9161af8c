// Package listener binds one TCP/TLS port to one federation snapshot: an
// accept loop hands each connection to a freshly scheduled worker that
// owns it for its lifetime, running the framing loop from the transport
// package and dispatching decoded frames to a Handler. Workers share
// nothing mutable with each other or with the listener; the snapshot is
// read-only for the listener's whole lifetime.
package listener

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aquaenet/aquaed/federation"
	"github.com/aquaenet/aquaed/internal/aerrors"
	"github.com/aquaenet/aquaed/internal/uri"
	"github.com/aquaenet/aquaed/transport"
)

// maxConcurrentWorkers bounds how many connections one Listener services
// at once; additional connections queue in the kernel accept backlog
// rather than spawning unbounded goroutines.
const maxConcurrentWorkers = 256

// Handler is invoked once per decoded frame, after the typed payload has
// been read off the wire. What it does with a frame is a downstream
// concern; the listener's job ends at handing it over.
type Handler func(ctx context.Context, session *transport.Session, frame *transport.FrameHeader) error

// Config binds one node identity, on one port, to one federation
// snapshot.
type Config struct {
	NodeName       string
	Port           int
	Snapshot       *federation.Snapshot
	OfferedQueries []string
	TLSConfig      *tls.Config
	Handler        Handler
}

// Listener owns one accept loop and the bounded pool of per-connection
// workers it spawns.
type Listener struct {
	cfg     Config
	net     net.Listener
	metrics *metrics
	log     *logrus.Entry
}

// New validates cfg's binding against its snapshot and opens the
// underlying TLS listener. A node-name-to-port mismatch or an unresolved
// offered query name is logged as a warning, per the binding's
// non-fatal-validation rule; only an unresolved node name is fatal.
func New(cfg Config, reg prometheus.Registerer, log *logrus.Logger) (*Listener, error) {
	entry := log.WithField("node", cfg.NodeName)

	node, ok := cfg.Snapshot.FindNode(cfg.NodeName)
	if !ok {
		return nil, &aerrors.ConfigError{Field: "node_name", Err: fmt.Errorf("node %q not found in federation snapshot", cfg.NodeName)}
	}
	if node.Port != cfg.Port {
		entry.Warnf("listener port %d does not match node's declared port %d; continuing with listener port", cfg.Port, node.Port)
	}
	for _, q := range cfg.OfferedQueries {
		if _, ok := cfg.Snapshot.FindQuery(q); !ok {
			entry.Warnf("offered query %q does not resolve in the federation snapshot", q)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	var ln net.Listener
	var err error
	if cfg.TLSConfig != nil {
		ln, err = tls.Listen("tcp", addr, cfg.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return nil, &aerrors.ConfigError{Field: "port", Err: err}
	}

	return &Listener{
		cfg:     cfg,
		net:     ln,
		metrics: newMetrics(reg),
		log:     entry,
	}, nil
}

// ReadinessLine renders the aquae://host:port/ banner line a caller
// prints once the listener is open.
func (l *Listener) ReadinessLine(host string) string {
	return uri.FormatNodeURI(host, l.cfg.Port)
}

// Close releases the underlying socket.
func (l *Listener) Close() error { return l.net.Close() }

// Serve runs the accept loop until ctx is cancelled or the listener is
// closed. It never returns a non-nil error for a worker failure; worker
// failures are logged and the worker's connection is closed, leaving the
// listener and its other workers untouched.
func (l *Listener) Serve(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentWorkers)

	go func() {
		<-ctx.Done()
		_ = l.net.Close()
	}()

	for {
		conn, err := l.net.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &aerrors.IOError{Op: "accept", Err: err}
		}
		l.metrics.connectionsAccepted.WithLabelValues(l.cfg.NodeName).Inc()

		group.Go(func() error {
			l.serveConnection(ctx, conn)
			return nil
		})
	}
}

func (l *Listener) serveConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	// Cancelling ctx closes the connection, which unblocks a worker parked
	// in a read that has no deadline.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	session := transport.NewSession(conn)
	log := l.log.WithField("session", session.ID.String())

	// A ProgrammingError surfaces as a panic at the point the state
	// machine invariant was violated; it is recovered here so one
	// misbehaving worker never takes down the listener or its siblings.
	defer func() {
		if r := recover(); r != nil {
			if progErr, ok := r.(*aerrors.ProgrammingError); ok {
				l.metrics.errorsByKind.WithLabelValues(l.cfg.NodeName, "programming").Inc()
				log.WithError(progErr).Error("worker failed on a programming error")
				return
			}
			panic(r)
		}
	}()

	for {
		frame, err := session.ReadFrame(ctx)
		if err != nil {
			l.logSessionError(log, err)
			return
		}
		l.metrics.framesDecoded.WithLabelValues(l.cfg.NodeName).Inc()

		if l.cfg.Handler == nil {
			log.WithField("type", frame.Type.String()).Warn("no handler configured; dropping connection")
			return
		}
		if err := l.cfg.Handler(ctx, session, frame); err != nil {
			l.logSessionError(log, err)
			return
		}
	}
}

func (l *Listener) logSessionError(log *logrus.Entry, err error) {
	kind := "unknown"
	switch {
	case aerrors.IsPeerOrIO(err):
		kind = "peer"
	default:
		kind = "programming"
	}
	l.metrics.errorsByKind.WithLabelValues(l.cfg.NodeName, kind).Inc()
	log.WithError(err).Warn("session terminated")
}
