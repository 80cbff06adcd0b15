package vault

import (
	"context"
	"fmt"
	"time"

	"ridecipher/internal/domain"
)

type sweeper struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Start launches the background sweeper. It runs until ctx is cancelled or
// Stop is called, and can be started again after either. Starting a running
// sweeper is a no-op.
func (v *Vault) Start(ctx context.Context) error {
	v.mu.RLock()
	closed := v.closed
	v.mu.RUnlock()
	if closed {
		return domain.ErrVaultClosed
	}

	v.sweepMu.Lock()
	defer v.sweepMu.Unlock()
	if v.sweeper != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	sw := &sweeper{cancel: cancel, done: make(chan struct{})}
	v.sweeper = sw
	go v.sweepLoop(ctx, sw)
	v.log.Info("vault.sweeper.started", "interval", v.interval.String())
	return nil
}

// Stop signals the sweeper and waits for it to exit or for ctx to end.
func (v *Vault) Stop(ctx context.Context) error {
	v.sweepMu.Lock()
	sw := v.sweeper
	v.sweeper = nil
	v.sweepMu.Unlock()
	if sw == nil {
		return nil
	}

	sw.cancel()
	select {
	case <-sw.done:
		v.log.Info("vault.sweeper.stopped")
		return nil
	case <-ctx.Done():
		v.log.Warn("vault.sweeper.stop_timeout", "err", ctx.Err())
		return fmt.Errorf("vault: stop sweeper: %w", ctx.Err())
	}
}

// Running reports whether the sweeper loop is live.
func (v *Vault) Running() bool {
	v.sweepMu.Lock()
	defer v.sweepMu.Unlock()
	return v.sweeper != nil
}

func (v *Vault) sweepLoop(ctx context.Context, sw *sweeper) {
	defer close(sw.done)
	defer func() {
		v.sweepMu.Lock()
		if v.sweeper == sw {
			v.sweeper = nil
			sw.cancel()
		}
		v.sweepMu.Unlock()
	}()
	t := time.NewTicker(v.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			v.sweepOnce()
		}
	}
}

// sweepOnce runs one pass. A panic is logged and the loop keeps going.
func (v *Vault) sweepOnce() {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error("vault.sweep.panic", "panic", fmt.Sprint(r))
		}
	}()
	start := time.Now()
	n := v.Sweep()
	v.log.Info("vault.sweep", "reclaimed", n, "remaining", v.Len(), "took", time.Since(start).String())
}
