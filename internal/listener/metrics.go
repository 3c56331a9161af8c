package listener

import "github.com/prometheus/client_golang/prometheus"

// metrics are labelled by listener node name so a single registry can
// serve several listeners. newMetrics registers its collectors on first
// use and reattaches to the already-registered ones on every later call
// against the same registry, so opening a second listener against a
// registry the first listener already populated does not panic.
type metrics struct {
	connectionsAccepted *prometheus.CounterVec
	framesDecoded       *prometheus.CounterVec
	errorsByKind        *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		connectionsAccepted: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "aquaed_connections_accepted_total",
			Help: "Connections accepted by each listener.",
		}, []string{"node"}),
		framesDecoded: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "aquaed_frames_decoded_total",
			Help: "Frames successfully decoded by each listener.",
		}, []string{"node"}),
		errorsByKind: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "aquaed_session_errors_total",
			Help: "Session errors by listener and error kind.",
		}, []string{"node", "kind"}),
	}
}

// registerCounterVec registers a CounterVec against reg, or, if a vector
// with the same name is already registered there, returns that existing
// vector instead of panicking — the shared-registry, multiple-listener
// case.
func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(opts, labelNames)
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return vec
}
