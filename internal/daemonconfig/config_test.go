package daemonconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aquaenet/aquaed/internal/schema"
)

func TestLoadValidatesAndParses(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "daemon.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
listeners:
  - node_name: node-a
    port: 8443
    metadata_file: federation.bin
    queries: ["eligible?"]
`), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Len(t, cfg.Listeners, 1)
	require.Equal(t, "node-a", cfg.Listeners[0].NodeName)
	require.Equal(t, 8443, cfg.Listeners[0].Port)
	require.Equal(t, []string{"eligible?"}, cfg.Listeners[0].Queries)
}

func TestLoadRejectsMissingListeners(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "daemon.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("listeners: []\n"), 0o644))

	_, err := Load(cfgPath)
	require.Error(t, err)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "daemon.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
listeners:
  - node_name: node-a
    port: 70000
    metadata_file: federation.bin
`), 0o644))

	_, err := Load(cfgPath)
	require.Error(t, err)
}

func TestLoadSnapshotsSharesCacheAcrossListeners(t *testing.T) {
	dir := t.TempDir()

	rec := &schema.FederationRecord{
		Node: []schema.NodeRecord{
			{Name: strp("node-a"), Hostname: strp("a.example.org"), Port: u32p(8443), TLSCertPEM: []byte("cert-a")},
		},
	}
	buf := schema.EncodeFederation(rec)
	metaPath := filepath.Join(dir, "federation.bin")
	require.NoError(t, os.WriteFile(metaPath, buf, 0o644))

	cfg := &DaemonConfig{Listeners: []ListenerConfig{
		{NodeName: "node-a", Port: 8443, MetadataFile: "federation.bin"},
		{NodeName: "node-a-alias", Port: 8444, MetadataFile: "./federation.bin"},
	}}

	snaps, err := LoadSnapshots(cfg, dir)
	require.NoError(t, err)
	require.Same(t, snaps[0], snaps[1])
}

func TestLoadSnapshotsKeysByIndexNotNodeName(t *testing.T) {
	dir := t.TempDir()

	recA := &schema.FederationRecord{
		Node: []schema.NodeRecord{
			{Name: strp("node-a"), Hostname: strp("a.example.org"), Port: u32p(8443), TLSCertPEM: []byte("cert-a")},
		},
	}
	recB := &schema.FederationRecord{
		Node: []schema.NodeRecord{
			{Name: strp("node-a"), Hostname: strp("b.example.org"), Port: u32p(8444), TLSCertPEM: []byte("cert-b")},
		},
	}
	pathA := filepath.Join(dir, "a.bin")
	pathB := filepath.Join(dir, "b.bin")
	require.NoError(t, os.WriteFile(pathA, schema.EncodeFederation(recA), 0o644))
	require.NoError(t, os.WriteFile(pathB, schema.EncodeFederation(recB), 0o644))

	// Both listeners reuse node_name "node-a" but point at different
	// metadata files; each must keep its own snapshot.
	cfg := &DaemonConfig{Listeners: []ListenerConfig{
		{NodeName: "node-a", Port: 8443, MetadataFile: "a.bin"},
		{NodeName: "node-a", Port: 8444, MetadataFile: "b.bin"},
	}}

	snaps, err := LoadSnapshots(cfg, dir)
	require.NoError(t, err)
	require.NotSame(t, snaps[0], snaps[1])

	nodeA, ok := snaps[0].FindNode("node-a")
	require.True(t, ok)
	require.Equal(t, "a.example.org", nodeA.Hostname)

	nodeB, ok := snaps[1].FindNode("node-a")
	require.True(t, ok)
	require.Equal(t, "b.example.org", nodeB.Hostname)
}

func strp(s string) *string { return &s }
func u32p(v uint32) *uint32 { return &v }
