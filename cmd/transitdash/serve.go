package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openmetro/transitdash"
	"github.com/openmetro/transitdash/metrics"
	"github.com/openmetro/transitdash/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the feed and serve the dashboard API",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()

	began := time.Now()
	snap, err := loadSnapshot(ctx, cfg)
	if err != nil {
		return err
	}
	collector.ObserveFeedLoad(time.Since(began))
	collector.SetFeedSizes(
		len(snap.Routes()), len(snap.Stops()),
		len(snap.Trips()), len(snap.StopTimes()),
	)

	began = time.Now()
	derived, err := transitdash.BuildDerived(snap)
	if err != nil {
		return err
	}
	collector.ObserveDerive(time.Since(began))

	srv := server.New(snap, derived, collector, cfg.AllowedOrigins)
	return srv.Run(ctx, cfg.ListenAddr)
}
