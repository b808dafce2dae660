package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mkitti/fileglancer/internal/logger"
	"github.com/mkitti/fileglancer/pkg/config"
	"github.com/mkitti/fileglancer/pkg/registry"
)

func newMonitorCommand(a *app) *cobra.Command {
	var (
		interval time.Duration
		port     int
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve metrics and probe share mounts until interrupted",
		Long: `Serve Prometheus metrics on /metrics and a health check on /healthz, and
check every share's mount at a fixed interval. The share list comes through
the same caches as every other command, so the central server is asked at
most once per central.share_paths_ttl.

/healthz fails while the share list cannot be obtained.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}

			// monitor always serves metrics; the collectors must see the
			// registry before services are built
			served := *cfg
			served.Metrics.Enabled = true
			if cmd.Flags().Changed("port") {
				served.Metrics.Port = port
			}
			if !cmd.Flags().Changed("interval") {
				interval = cfg.Metrics.ProbeInterval
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %v", interval)
			}

			var svc *registry.Services
			m := config.InitializeMetrics(&served, func(ctx context.Context) error {
				_, err := svc.Shares.Get(ctx)
				return err
			})

			svc, err = a.services()
			if err != nil {
				return err
			}

			return monitor(cmd.Context(), m.Server.Start, svc.Resolver, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "time between mount probes (default metrics.probe_interval)")
	cmd.Flags().IntVar(&port, "port", 9090, "metrics port (default metrics.port)")
	return cmd
}

// monitor runs serve and the probe loop until ctx is cancelled or either
// fails.
func monitor(ctx context.Context, serve func(context.Context) error, resolver *registry.Resolver, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return serve(ctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			probeOnce(ctx, resolver)

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// probeOnce logs the mount status of every share and returns how many are
// mounted.
func probeOnce(ctx context.Context, resolver *registry.Resolver) (mounted, total int) {
	statuses, err := resolver.Probe(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("Failed to probe file share paths: %v", err)
		}
		return 0, 0
	}

	for _, st := range statuses {
		if st.Mounted {
			mounted++
			continue
		}
		logger.Debug("File share path %s is not mounted: %v", st.Share.CanonicalPath, st.Err)
	}

	logger.Info("%d of %d file share paths mounted", mounted, len(statuses))
	return mounted, len(statuses)
}
