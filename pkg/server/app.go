package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "PumpScope/internal/domain/repository"
	"PumpScope/internal/export"
	"PumpScope/internal/usecase"
	"PumpScope/pkg/config"
	xhttp "PumpScope/pkg/http"
	applogger "PumpScope/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	collector *usecase.EventCollector
	status    *usecase.StatusReporter
	recorder  *export.Recorder
	writers   map[string]drepo.EpisodeWriter

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies. recorder may be nil
// when chart export is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.EventCollector,
	status *usecase.StatusReporter,
	recorder *export.Recorder,
	writers map[string]drepo.EpisodeWriter,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		collector:   collector,
		status:      status,
		recorder:    recorder,
		writers:     writers,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.collector.Start(ctx); err != nil {
		a.log.Error("collector start error", applogger.Error(err))
		return err
	}
	a.log.Info("collector started", applogger.Strings("symbols", a.cfg.General.Symbols))

	a.status.Start(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Shutdown(ctx); err != nil {
		a.log.Warn("collector stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// Drain pending chart finalizations before touching the log files.
	if a.recorder != nil {
		a.recorder.Close()
	}

	for strategy, w := range a.writers {
		if err := w.Close(); err != nil {
			a.log.Warn("episode log close error",
				applogger.String("strategy", strategy),
				applogger.Error(err),
			)
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
