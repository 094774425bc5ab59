package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/whylee-play/whylee/internal/api"
	"github.com/whylee-play/whylee/internal/app/progress"
	"github.com/whylee-play/whylee/internal/health"
	_ "github.com/whylee-play/whylee/internal/infra/metrics" // Register Prometheus metrics
	"github.com/whylee-play/whylee/internal/infra/sqlite"
)

// Daemon is the core Whylee runtime. It wires together all services.
type Daemon struct {
	Config   Config
	DB       *sqlite.DB
	Progress *progress.Service
	Server   *api.Server
	Health   *health.Checker
	cancel   context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	db, err := sqlite.Open(whyleeHome())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	prog := progress.NewService(db)

	srv := api.NewServer(cfg.SessionConfig(), db, prog, cfg.Questions.ShuffleSeed)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	checker := health.NewChecker(db, whyleeHome())
	srv.SetHealth(checker)

	return &Daemon{
		Config:   cfg,
		DB:       db,
		Progress: prog,
		Server:   srv,
		Health:   checker,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	log.Printf("[daemon] Whylee serving on http://%s", addr)
	if d.Config.Telemetry.Prometheus {
		log.Printf("[daemon]   metrics: http://%s/metrics", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
