package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

// App is the gateway process: an HTTP server in front of a Wire.
type App struct {
	cfg  Config
	log  *slog.Logger
	wire *Wire
}

// New builds an App from cfg. A nil log gets a JSON logger at cfg.LogLevel.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}
	w, err := NewWire(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, log: log, wire: w}, nil
}

// Wire exposes the dependency graph.
func (a *App) Wire() *Wire { return a.wire }

// Run serves on cfg.HTTPAddr until ctx ends or the listener fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTPAddr)
	if err != nil {
		_ = a.wire.Close(context.Background())
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener. It always tears the Wire down
// before returning.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.wire.Vault.Start(ctx); err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           a.wire.Gateway.Handler(),
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	a.log.Info("server.start",
		"addr", ln.Addr().String(),
		"curve", a.wire.Manager.Curve(),
		"suite", a.wire.Manager.Suite(),
		"capacity", a.wire.Vault.Capacity(),
		"auth", a.wire.Verifier != nil,
		"records", a.wire.Records != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case runErr = <-errCh:
		a.log.Error("server.fail", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		runErr = errors.Join(runErr, err)
	}

	closeCtx, cancelClose := context.WithTimeout(context.Background(), a.cfg.SweepStopTimeout)
	defer cancelClose()
	if err := a.wire.Close(closeCtx); err != nil {
		a.log.Error("vault.close.fail", "err", err)
		runErr = errors.Join(runErr, err)
	}

	a.log.Info("server.stopped")
	return runErr
}

// Run loads configuration and serves until SIGINT or SIGTERM.
func Run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	log := NewLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
