package sync

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alfredjeanlab/propcord/internal/store"
)

// writeTimeout bounds a single destination write.
const writeTimeout = 30 * time.Second

// Destination is a backup target for the JSONL export.
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Result summarizes one backup run.
type Result struct {
	Bytes  int
	Wrote  int
	Failed int
}

// Scheduler backs the mapping table up to its destinations on an interval.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start backs up immediately and then on every tick until Stop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.SyncOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SyncOnce(ctx)
			}
		}
	}()
}

// Stop cancels the scheduler and waits for an in-flight run to finish. It is
// safe to call without Start.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SyncOnce exports the store once and writes the payload to every
// destination concurrently. A failing destination is logged and does not
// affect the others.
func (s *Scheduler) SyncOnce(ctx context.Context) Result {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.store, &buf); err != nil {
		s.logger.Error("sync export failed", "err", err)
		return Result{}
	}
	data := buf.Bytes()

	var failed atomic.Int64
	var g errgroup.Group
	for _, dest := range s.destinations {
		g.Go(func() error {
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			defer cancel()
			if err := dest.Write(wctx, data); err != nil {
				failed.Add(1)
				s.logger.Error("sync destination write failed", "destination", dest.Name(), "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Bytes:  len(data),
		Failed: int(failed.Load()),
	}
	res.Wrote = len(s.destinations) - res.Failed
	s.logger.Info("sync completed", "destinations", len(s.destinations), "failed", res.Failed, "bytes", res.Bytes)
	return res
}
