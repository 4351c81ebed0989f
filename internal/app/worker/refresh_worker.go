package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"subhub/internal/domain/model"
	"subhub/internal/domain/repository"
	"subhub/internal/platform/kv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// Refresher refreshes a single record on behalf of a principal.
type Refresher interface {
	Refresh(ctx context.Context, principal model.Principal, uuid string) (*model.UserRecord, error)
}

type RunResult struct {
	RunID     string
	Total     int
	Refreshed int
	Failed    int
}

// RefreshWorker refreshes every stored record as admin. It is meant for the
// standalone refresher binary; the gateway never runs background work.
type RefreshWorker struct {
	records     repository.RecordRepository
	refresher   Refresher
	concurrency int

	rdb     *redis.Client
	lockKey string
	lockTTL time.Duration
}

func NewRefreshWorker(records repository.RecordRepository, refresher Refresher, concurrency int) *RefreshWorker {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &RefreshWorker{records: records, refresher: refresher, concurrency: concurrency}
}

// WithRunLock makes each run take a redis lease on key first, so that several
// refresher instances against the same store do not overlap.
func (w *RefreshWorker) WithRunLock(rdb *redis.Client, key string, ttl time.Duration) *RefreshWorker {
	w.rdb = rdb
	w.lockKey = key
	w.lockTTL = ttl
	return w
}

// RunOnce refreshes all records with bounded concurrency. Per-record failures
// are logged and counted; only listing or locking errors fail the run.
func (w *RefreshWorker) RunOnce(ctx context.Context) (RunResult, error) {
	result := RunResult{RunID: uuid.NewString()}
	log := slog.With(slog.String("run_id", result.RunID))

	if w.rdb != nil {
		lock, err := kv.Acquire(ctx, w.rdb, w.lockKey, w.lockTTL)
		if err != nil {
			return result, fmt.Errorf("refresh run: %w", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Error("failed to release refresh lock", slog.Any("error", err))
			}
		}()
	}

	entries, err := w.records.List(ctx)
	if err != nil {
		return result, fmt.Errorf("refresh run: list records: %w", err)
	}
	result.Total = len(entries)
	log.Info("refresh run started", slog.Int("records", result.Total), slog.Int("concurrency", w.concurrency))

	var refreshed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, entry := range entries {
		if gctx.Err() != nil {
			break
		}
		id := entry.UUID
		g.Go(func() error {
			if _, err := w.refresher.Refresh(gctx, model.AdminPrincipal(), id); err != nil {
				failed.Add(1)
				log.Warn("record refresh failed", slog.String("uuid", id), slog.Any("error", err))
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	result.Refreshed = int(refreshed.Load())
	result.Failed = int(failed.Load())
	log.Info("refresh run finished",
		slog.Int("refreshed", result.Refreshed),
		slog.Int("failed", result.Failed),
	)
	return result, ctx.Err()
}

// Start runs immediately and then every interval until ctx is cancelled.
func (w *RefreshWorker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("refresh worker started", slog.Duration("interval", interval))
	for {
		if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("refresh run failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			slog.Info("refresh worker stopping")
			return
		case <-ticker.C:
		}
	}
}
