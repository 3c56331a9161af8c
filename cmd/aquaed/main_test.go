package main

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aquaenet/aquaed/internal/schema"
)

func TestRunReportsUsageErrorOnWrongArgCount(t *testing.T) {
	if code := run(nil); code != exitUsage {
		t.Errorf("run(nil) = %d, want %d", code, exitUsage)
	}
	if code := run([]string{"a", "b"}); code != exitUsage {
		t.Errorf("run(two args) = %d, want %d", code, exitUsage)
	}
}

func TestRunReportsStartupFailureOnMissingConfig(t *testing.T) {
	if code := run([]string{"/nonexistent/path/to/config.yaml"}); code != exitStartupFail {
		t.Errorf("run(missing config) = %d, want %d", code, exitStartupFail)
	}
}

// TestRunOpensTwoListenersSharingOneRegistry is the end-to-end regression
// case for the shared-registry, multiple-listener startup path: two
// listeners bound to the same daemon configuration must both open
// successfully instead of the second panicking on duplicate metric
// registration.
func TestRunOpensTwoListenersSharingOneRegistry(t *testing.T) {
	dir := t.TempDir()

	const portA, portB = 19443, 19444

	recA := &schema.FederationRecord{
		Node: []schema.NodeRecord{
			{Name: strp("node-a"), Hostname: strp("a.example.org"), Port: u32p(portA), TLSCertPEM: []byte("cert-a")},
		},
	}
	recB := &schema.FederationRecord{
		Node: []schema.NodeRecord{
			{Name: strp("node-b"), Hostname: strp("b.example.org"), Port: u32p(portB), TLSCertPEM: []byte("cert-b")},
		},
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), schema.EncodeFederation(recA), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.bin"), schema.EncodeFederation(recB), 0o644))

	cfgPath := filepath.Join(dir, "daemon.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
listeners:
  - node_name: node-a
    port: 19443
    metadata_file: a.bin
  - node_name: node-b
    port: 19444
    metadata_file: b.bin
`), 0o644))

	go func() {
		time.Sleep(200 * time.Millisecond)
		_ = syscall.Kill(os.Getpid(), syscall.SIGTERM)
	}()

	done := make(chan int, 1)
	go func() { done <- run([]string{cfgPath}) }()

	select {
	case code := <-done:
		if code != exitClean {
			t.Errorf("run(two-listener config) = %d, want %d", code, exitClean)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not shut down after SIGTERM")
	}
}

func strp(s string) *string { return &s }
func u32p(v uint32) *uint32 { return &v }
