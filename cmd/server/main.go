package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgebridge/edgebridge/internal/api"
	"github.com/edgebridge/edgebridge/internal/config"
	"github.com/edgebridge/edgebridge/internal/event"
	"github.com/edgebridge/edgebridge/internal/hub"
	"github.com/edgebridge/edgebridge/internal/messaging"
	"github.com/edgebridge/edgebridge/internal/router"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	cfgPath := flag.String("config", "configs/edgebridge.yaml", "Path to YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}
	listenAddr := cfg.Server.Addr
	if *addr != "" {
		listenAddr = *addr
	}

	// ── Hub + extension ──────────────────────────────────────────────────────
	bus := hub.New(logger)
	ext := messaging.New(bus, cfg.App.ID, logger)
	ext.Attach(bus)
	publishSharedState(bus, cfg)
	slog.Info("messaging extension attached", "app_id", cfg.App.ID)

	// ── Interaction router ───────────────────────────────────────────────────
	rtr := router.New(
		&busTracker{bus: bus},
		&loggingUIService{log: logger},
		&loggingSurface{log: logger},
		logger,
	)

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	// Republishing the shared state on reload is what un-gates a waiting queue.
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		publishSharedState(bus, newCfg)
		slog.Info("shared state republished from config")
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler := api.New(bus, ext, rtr, cfg.Server.QueueWarnDepth)
	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	ext.Flush()
	ext.Close()
	slog.Info("goodbye")
}

// publishSharedState seeds the hub with the states the drain gate depends on.
// The configuration state is always published, even with an empty dataset ID:
// a resolved-but-empty state unblocks the gate, only a missing one holds it.
func publishSharedState(bus *hub.Hub, cfg *config.Config) {
	bus.SetSharedState(messaging.StateOwnerConfiguration, map[string]any{
		messaging.KeyEventDataset: cfg.Messaging.EventDatasetID,
	}, nil)

	if cfg.Identity.ECID != "" {
		bus.SetXDMSharedState(messaging.StateOwnerEdgeIdentity, map[string]any{
			"identityMap": map[string]any{
				"ECID": []any{map[string]any{"id": cfg.Identity.ECID}},
			},
		}, nil)
	}
}

// busTracker reports in-app interactions back through the event bus so they
// flow through the same gate and tracking builder as push interactions.
type busTracker struct {
	bus *hub.Hub
}

func (t *busTracker) TrackInteraction(interactionID string) {
	t.bus.Dispatch(event.New("In-app interaction", messaging.EventTypeMessaging, messaging.SourceRequestContent,
		map[string]any{
			messaging.KeyTrackEventType: "inapp.interact",
			messaging.KeyTrackMessageID: interactionID,
		}))
}

// loggingUIService stands in for the host navigation service.
type loggingUIService struct {
	log *slog.Logger
}

func (u *loggingUIService) OpenURL(url string) bool {
	u.log.Info("opening deeplink", "url", url)
	return true
}

func (u *loggingUIService) ShowURL(url string) bool {
	u.log.Info("showing url", "url", url)
	return true
}

// loggingSurface stands in for the rendered message surface.
type loggingSurface struct {
	log *slog.Logger
}

func (s *loggingSurface) EvaluateScript(code string) {
	s.log.Info("evaluating script", "bytes", len(code))
}

func (s *loggingSurface) Dismiss(byUserAction bool) {
	s.log.Info("message dismissed", "by_user", byUserAction)
}
