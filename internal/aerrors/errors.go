// Package aerrors implements the error-kind taxonomy of the node runtime:
// configuration, metadata, peer, programming, and I/O errors. The kinds are
// disjoint and propagate differently — see each type's doc comment.
package aerrors

import (
	"errors"
	"fmt"
)

// ConfigError reports a malformed daemon-configuration file. Fatal at
// startup; no listener opens.
type ConfigError struct {
	File  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config %q: field %q: %v", e.File, e.Field, e.Err)
	}
	return fmt.Sprintf("config %q: %v", e.File, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// MetadataError reports structural invalidity, an unresolved cross
// reference, or a duplicate key/element while loading a federation
// snapshot. Fatal at load; identifies the offending record.
type MetadataError struct {
	File       string
	RecordKind string
	RecordName string
	Field      string
	Err        error
}

func (e *MetadataError) Error() string {
	name := e.RecordName
	if name == "" {
		name = "<unnamed>"
	}
	if e.Field != "" {
		return fmt.Sprintf("metadata %q: %s %q: field %q: %v", e.File, e.RecordKind, name, e.Field, e.Err)
	}
	return fmt.Sprintf("metadata %q: %s %q: %v", e.File, e.RecordKind, name, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// PeerError (a.k.a. protocol error) reports a framing or encoding violation
// observed on the wire. Recoverable at session granularity: log, close the
// session, leave the listener and other sessions untouched.
type PeerError struct {
	SessionID string
	Op        string
	Err       error
}

func (e *PeerError) Error() string {
	return fmt.Sprintf("peer error [session %s] during %s: %v", e.SessionID, e.Op, e.Err)
}

func (e *PeerError) Unwrap() error { return e.Err }

// IOError wraps an underlying stream read/write failure. Treated like a
// PeerError at session granularity ("Treated like a peer error").
type IOError struct {
	SessionID string
	Op        string
	Err       error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o error [session %s] during %s: %v", e.SessionID, e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ProgrammingError reports an invariant violated by in-process code: a
// state machine called in the wrong state, a typed reader invoked for the
// wrong expected payload type. These must never be reachable from peer
// input; the caller should treat one as fail-fast for the offending worker,
// never for the listener or other sessions.
type ProgrammingError struct {
	Op   string
	Want string
	Got  string
}

func (e *ProgrammingError) Error() string {
	return fmt.Sprintf("programming error: %s: want %s, got %s", e.Op, e.Want, e.Got)
}

// IsPeerOrIO reports whether err is a PeerError or IOError, the two kinds
// that are recoverable at session granularity.
func IsPeerOrIO(err error) bool {
	var pe *PeerError
	var ie *IOError
	return errors.As(err, &pe) || errors.As(err, &ie)
}
