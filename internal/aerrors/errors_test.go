package aerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsPeerOrIO(t *testing.T) {
	require.True(t, IsPeerOrIO(&PeerError{SessionID: "s1", Op: "read_frame", Err: errors.New("bad version byte")}))
	require.True(t, IsPeerOrIO(&IOError{SessionID: "s1", Op: "read", Err: errors.New("connection reset")}))
	require.False(t, IsPeerOrIO(&ProgrammingError{Op: "read_frame", Want: "WAITING_FOR_FRAME", Got: "READING_HEADER"}))
	require.False(t, IsPeerOrIO(&ConfigError{File: "daemon.yaml", Err: errors.New("missing port")}))
}

func TestErrorMessagesIncludeContext(t *testing.T) {
	me := &MetadataError{File: "fed.bin", RecordKind: "Node", RecordName: "A", Field: "tls_cert", Err: errors.New("empty")}
	require.Contains(t, me.Error(), "fed.bin")
	require.Contains(t, me.Error(), "Node")
	require.Contains(t, me.Error(), "A")
	require.Contains(t, me.Error(), "tls_cert")

	pe := &ProgrammingError{Op: "read_identity_sign_request", Want: "IDENTITY_SIGN_REQUEST", Got: "SIGNED_QUERY"}
	require.Contains(t, pe.Error(), "read_identity_sign_request")
}
