package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"livecricket.dev/scoring/internal/api/command"
	"livecricket.dev/scoring/internal/api/query"
	"livecricket.dev/scoring/internal/archive"
	"livecricket.dev/scoring/internal/auth"
	"livecricket.dev/scoring/internal/config"
	"livecricket.dev/scoring/internal/consensus"
	"livecricket.dev/scoring/internal/eventstore"
	"livecricket.dev/scoring/internal/hub"
	"livecricket.dev/scoring/internal/match"
	"livecricket.dev/scoring/internal/model"
	"livecricket.dev/scoring/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.InitWithFormat(telemetry.ParseLogLevel(cfg.LogLevel), telemetry.ParseFormat(os.Getenv("LOG_FORMAT")))
	telemetry.Infof("Starting scoring server")

	store, err := eventstore.Open(cfg.EventStorePath)
	if err != nil {
		telemetry.Errorf("Failed to open event store: %v", err)
		os.Exit(1)
	}

	policy, err := config.LoadConsensusPolicy(cfg.ConsensusPolicyPath)
	if err != nil {
		telemetry.Warnf("Consensus policy load failed, using default: %v", err)
		policy = consensus.DefaultPolicy()
	}
	engine := consensus.NewEngine(policy)
	held := consensus.NewHeldBuffer()

	var verifier auth.Verifier = cfg.StaticVerifier()

	wsHub := hub.NewHub(store, verifier)
	registry := match.NewRegistry(store, engine, held, wsHub)
	wsHub.SetRegistry(registry)

	var archiver archive.Archiver = archive.NoopArchiver{}
	if cfg.ArchiveEnabled {
		a, err := archive.NewFileArchiver(cfg.ArchivePath)
		if err != nil {
			telemetry.Errorf("Failed to init archiver: %v", err)
			os.Exit(1)
		}
		archiver = a
	}

	commandHandler := command.NewHandler(registry, verifier)
	queryHandler := query.NewHandler(registry, store)

	commandMux := http.NewServeMux()
	commandHandler.RegisterRoutes(commandMux)

	queryMux := http.NewServeMux()
	queryHandler.RegisterRoutes(queryMux)
	wsHub.RegisterRoutes(queryMux)

	commandAddr := fmt.Sprintf("%s:%d", cfg.CommandHost, cfg.CommandPort)
	queryAddr := fmt.Sprintf("%s:%d", cfg.QueryHost, cfg.QueryPort)

	commandServer := &http.Server{
		Addr:         commandAddr,
		Handler:      commandMux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	queryServer := &http.Server{
		Addr:         queryAddr,
		Handler:      queryMux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		telemetry.Infof("Command API listening on %q", commandAddr)
		if err := commandServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("command server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		telemetry.Infof("Query API + live feed listening on %q", queryAddr)
		if err := queryServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("query server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sweepConsensusAndArchive(gctx, registry, cfg.SweepInterval, archiver)
		return nil
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		telemetry.Infof("Shutting down...")
	case <-gctx.Done():
		telemetry.Errorf("Server error, shutting down: %v", gctx.Err())
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	commandServer.Shutdown(shutdownCtx)
	queryServer.Shutdown(shutdownCtx)

	if err := g.Wait(); err != nil {
		telemetry.Errorf("%v", err)
	}

	telemetry.Infof("Shutdown complete  matches=%d  events=%d  balls=%d  disputes=%d",
		telemetry.Metrics.ActiveMatches.Value(),
		telemetry.Metrics.EventsAppended.Value(),
		telemetry.Metrics.BallsCommitted.Value(),
		telemetry.Metrics.DisputesOpened.Value(),
	)
}

// sweepConsensusAndArchive drives C4's periodic matching-window sweep for
// every live actor and hands completed/abandoned matches to the archiver,
// removing them from the registry once archived (§4.4 Sweep, cold-storage
// handoff on lifecycle terminal states).
func sweepConsensusAndArchive(ctx context.Context, registry *match.Registry, interval time.Duration, archiver archive.Archiver) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, a := range registry.All() {
				if err := a.Sweep(ctx, now); err != nil {
					telemetry.Warnf("Sweep failed: %v", err)
				}

				view, err := a.View(ctx)
				if err != nil {
					continue
				}
				if view.Match.State != model.MatchCompleted && view.Match.State != model.MatchAbandoned {
					continue
				}

				archiveAndRemove(ctx, registry, archiver, view.Match)
			}
		}
	}
}

func archiveAndRemove(ctx context.Context, registry *match.Registry, archiver archive.Archiver, m model.Match) {
	events, err := registry.Store().ReadRange(m.ID, 1, -1)
	if err != nil {
		telemetry.Errorf("Archive: read event log for %s: %v", m.ID, err)
		return
	}
	if err := archiver.Archive(ctx, m.ID, events); err != nil {
		telemetry.Errorf("Archive: %v", err)
		return
	}
	telemetry.Infof("Archived and closed match %s (%d events)", m.ID, len(events))
	registry.Remove(m.ID)
}
