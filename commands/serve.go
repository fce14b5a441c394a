package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/specboard/specboard/config"
	"github.com/specboard/specboard/document"
	"github.com/specboard/specboard/generation"
	"github.com/specboard/specboard/projectapi"
	"github.com/specboard/specboard/realtime"
	"github.com/specboard/specboard/server"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay and HTTP/WebSocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path (default: layered lookup)")
	return cmd
}

func runServe(parent context.Context, configPath string) error {
	logger := slog.Default()

	loader := config.NewLoader(logger)
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
		if err == nil {
			err = cfg.Validate()
		}
	} else {
		cfg, err = loader.Load()
		configPath = loader.FindProjectConfig()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("specboard"),
		nats.MaxReconnects(-1))
	if err != nil {
		return fmt.Errorf("connect NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer nc.Drain()
	transport := realtime.NATSTransport(nc)

	snapshots, err := openSnapshotStore(ctx, nc, cfg, logger)
	if err != nil {
		return err
	}

	relay := realtime.NewRelay(transport, snapshots, logger)
	if err := relay.Start(ctx); err != nil {
		return fmt.Errorf("start relay: %w", err)
	}
	defer func() {
		if err := relay.Stop(); err != nil {
			logger.Warn("Relay stop failed", "error", err)
		}
	}()

	gen := newSwappableGenerator(cfg, logger)

	srv := server.New(cfg.HTTP.Addr, snapshots, transport,
		server.WithLogger(logger),
		server.WithGenerator(gen))

	// Hot-reload generation settings when the config file changes.
	if configPath != "" {
		go func() {
			if err := config.Watch(ctx, configPath, logger, gen.swap); err != nil {
				logger.Warn("Config watcher stopped", "error", err)
			}
		}()
	}

	return srv.ListenAndServe(ctx)
}

// openSnapshotStore opens the JetStream KV store, falling back to the
// in-memory store when persistence is disabled or JetStream is unavailable.
func openSnapshotStore(ctx context.Context, nc *nats.Conn, cfg *config.Config, logger *slog.Logger) (realtime.SnapshotStore, error) {
	if !cfg.NATS.Snapshots {
		logger.Info("Snapshot persistence disabled, using in-memory store")
		return realtime.NewMemorySnapshotStore(), nil
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	store, err := realtime.NewKVSnapshotStore(ctx, js)
	if err != nil {
		logger.Warn("JetStream KV unavailable, falling back to in-memory snapshots", "error", err)
		return realtime.NewMemorySnapshotStore(), nil
	}
	return store, nil
}

// swappableGenerator wraps the generation pipeline behind an atomic pointer
// so config reloads swap provider settings without dropping connections.
type swappableGenerator struct {
	pipeline atomic.Pointer[generation.Pipeline]
	logger   *slog.Logger
}

func newSwappableGenerator(cfg *config.Config, logger *slog.Logger) *swappableGenerator {
	g := &swappableGenerator{logger: logger}
	g.swap(cfg)
	return g
}

func (g *swappableGenerator) swap(cfg *config.Config) {
	temperature := cfg.Generation.Temperature
	client := generation.NewClient(generation.Endpoint{
		Provider:    cfg.Generation.Provider,
		URL:         cfg.Generation.Endpoint,
		Model:       cfg.Generation.Model,
		Temperature: &temperature,
	},
		generation.WithLogger(g.logger),
		generation.WithHTTPClient(&http.Client{Timeout: cfg.Generation.Timeout}))

	projects := projectapi.NewClient(cfg.Projects.BaseURL, projectapi.WithLogger(g.logger))

	pipeline := generation.NewPipeline(client, projects,
		generation.WithPipelineLogger(g.logger),
		generation.WithMaxInstructionLen(cfg.Generation.MaxInstructionLen))
	g.pipeline.Store(pipeline)
}

func (g *swappableGenerator) Generate(ctx context.Context, projectID, instruction string) (document.Document, error) {
	return g.pipeline.Load().Generate(ctx, projectID, instruction)
}
