// Command finquota ingests margin/short quota records from the back-office
// feed, maintains the per-area and company-wide summaries, and mirrors
// every mutation into the document store.
//
// Passing any positional argument enables search-index bootstrap, matching
// the original process surface.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finquota/finquota/params"
	"github.com/finquota/finquota/pkg/areas"
	"github.com/finquota/finquota/pkg/handler"
	"github.com/finquota/finquota/pkg/ring"
	"github.com/finquota/finquota/pkg/server"
	"github.com/finquota/finquota/pkg/store"
	"github.com/finquota/finquota/pkg/util"
	"github.com/finquota/finquota/pkg/wire"
)

func main() {
	var (
		configPath string
		areasPath  string
	)

	root := &cobra.Command{
		Use:   "finquota [init-index]",
		Short: "margin/short quota ingestion and aggregation service",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, areasPath, len(args) > 0)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVar(&configPath, "config", "connection.json", "connection config file")
	root.Flags().StringVar(&areasPath, "areas", "area_branch.json", "area to branches mapping file")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath, areasPath string, initIndex bool) error {
	cfg, loaded := params.Load(configPath)

	logger, err := util.NewLoggerWithFile(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("starting", "config", configPath, "init_index", initIndex)
	if !loaded {
		sugar.Warnw("config_file_missing_using_defaults", "path", configPath)
	}

	provider, err := areas.LoadFile(areasPath)
	if err != nil {
		sugar.Errorw("area_mapping_load_failed", "path", areasPath, "err", err)
		return err
	}
	sugar.Infow("area_mapping_loaded",
		"areas", len(provider.BackOfficeIDs()), "branches", len(provider.AllBranches()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := openDocumentStore(ctx, cfg, sugar)
	if err != nil {
		sugar.Errorw("store_open_failed", "backend", cfg.StoreBackend, "err", err)
		return err
	}
	defer doc.Close()

	if initIndex {
		if err := doc.CreateIndex(ctx); err != nil {
			sugar.Errorw("index_bootstrap_failed", "err", err)
			return err
		}
	}

	summaries := store.New(doc, provider, sugar)
	if err := summaries.Init(ctx); err != nil {
		sugar.Errorw("summary_load_failed", "err", err)
		return err
	}

	registry := handler.NewRegistry(sugar)
	registry.Register(wire.TCodeH01, handler.NewH01Handler(summaries, provider, sugar))
	registry.Register(wire.TCodeH05P, handler.NewH05PHandler(summaries, provider, sugar))

	capacity := cfg.RingCapacityBytes
	if capacity <= 0 {
		capacity = ring.DefaultCapacity
	}
	rb := ring.New(capacity)

	srv, err := server.New(cfg.ServerPort, cfg.SocketTimeout(), rb, registry, sugar)
	if err != nil {
		sugar.Errorw("tcp_start_failed", "port", cfg.ServerPort, "err", err)
		return err
	}
	srv.Start(ctx)
	sugar.Infow("running", "port", cfg.ServerPort, "store_backend", cfg.StoreBackend)

	<-ctx.Done()
	sugar.Infow("shutdown_signal_received")
	srv.Stop()
	return nil
}

func openDocumentStore(ctx context.Context, cfg params.Config, sugar *zap.SugaredLogger) (store.Document, error) {
	switch cfg.StoreBackend {
	case "", "redis":
		return store.OpenRedis(ctx, cfg, sugar)
	case "pebble":
		return store.OpenPebble(cfg.PebblePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
