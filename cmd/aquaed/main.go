// Command aquaed runs one or more federation-node listeners from a single
// daemon configuration file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aquaenet/aquaed/internal/daemonconfig"
	"github.com/aquaenet/aquaed/internal/listener"
)

const (
	exitClean       = 0
	exitUsage       = 1
	exitStartupFail = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: aquaed <config-file>")
		return exitUsage
	}
	configPath := args[0]

	cfg, err := daemonconfig.Load(configPath)
	if err != nil {
		log.WithError(err).Error("failed to load daemon configuration")
		return exitStartupFail
	}

	snapshots, err := daemonconfig.LoadSnapshots(cfg, filepath.Dir(configPath))
	if err != nil {
		log.WithError(err).Error("failed to load federation metadata")
		return exitStartupFail
	}

	reg := prometheus.NewRegistry()
	listeners := make([]*listener.Listener, 0, len(cfg.Listeners))
	for i, lc := range cfg.Listeners {
		snap := snapshots[i]
		l, err := listener.New(listener.Config{
			NodeName:       lc.NodeName,
			Port:           lc.Port,
			Snapshot:       snap,
			OfferedQueries: lc.Queries,
		}, reg, log)
		if err != nil {
			log.WithError(err).WithField("node", lc.NodeName).Error("failed to open listener")
			for _, open := range listeners {
				open.Close()
			}
			return exitStartupFail
		}
		listeners = append(listeners, l)

		node, _ := snap.FindNode(lc.NodeName)
		fmt.Fprintln(os.Stderr, l.ReadinessLine(node.Hostname))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		l := l
		group.Go(func() error {
			return l.Serve(ctx)
		})
	}

	if err := group.Wait(); err != nil {
		log.WithError(err).Error("listener exited with an error")
		return exitStartupFail
	}
	log.Info("shutdown complete")
	return exitClean
}
