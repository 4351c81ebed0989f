package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"subhub/internal/common"
	"subhub/internal/common/security"
	"subhub/internal/domain/model"
	"subhub/internal/domain/repository"
	"subhub/internal/platform/metrics"
	"subhub/internal/platform/upstream"
	"time"
)

const DefaultUpstreamTimeout = 10 * time.Second

// Upstream bodies are never read; this only lets the connection be reused.
const maxDrainBytes = 64 << 10

type RefreshService struct {
	repo    repository.RecordRepository
	gate    *security.Gate
	client  upstream.Doer
	timeout time.Duration
	metrics *metrics.Collector
}

func NewRefreshService(
	repo repository.RecordRepository,
	gate *security.Gate,
	client upstream.Doer,
	timeout time.Duration,
	collector *metrics.Collector,
) *RefreshService {
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	return &RefreshService{repo: repo, gate: gate, client: client, timeout: timeout, metrics: collector}
}

// Refresh re-reads usage and expiry from the record's subscription URL and
// persists the merged record. The write is a plain overwrite: a concurrent
// edit or refresh of the same record may be lost.
//
// Client cancellation is ignored once started so a disconnect cannot leave a
// fetched result unsaved; the upstream call is bounded by the service timeout.
func (s *RefreshService) Refresh(ctx context.Context, principal model.Principal, uuid string) (*model.UserRecord, error) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return nil, fmt.Errorf("missing user id: %w", common.ErrMalformedInput)
	}
	if err := s.gate.Authorize(principal, security.Requirement{SubjectID: uuid}); err != nil {
		s.metrics.RecordRefresh(metrics.OutcomeForbidden)
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	record, err := s.repo.Get(ctx, uuid)
	if err != nil {
		s.observe(uuid, err)
		return nil, err
	}

	update, err := s.fetch(ctx, record.Sub)
	if err != nil {
		s.observe(uuid, err)
		return nil, err
	}

	merged := update.Apply(*record)
	if err := s.repo.Put(ctx, uuid, merged); err != nil {
		err = fmt.Errorf("store refreshed record: %w", err)
		s.observe(uuid, err)
		return nil, err
	}
	s.observe(uuid, nil)
	return &merged, nil
}

func (s *RefreshService) fetch(ctx context.Context, sub string) (RecordUpdate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sub, nil)
	if err != nil {
		return RecordUpdate{}, fmt.Errorf("%w: %v", common.ErrUpstreamUnreachable, err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	start := time.Now()
	resp, err := s.client.Do(req)
	s.metrics.RecordUpstreamLatency(time.Since(start))
	if err != nil {
		return RecordUpdate{}, fmt.Errorf("%w: %v", common.ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RecordUpdate{}, &common.UpstreamStatusError{StatusCode: resp.StatusCode}
	}
	return ParseSubscriptionHeaders(resp.Header), nil
}

func (s *RefreshService) observe(uuid string, err error) {
	outcome := refreshOutcome(err)
	s.metrics.RecordRefresh(outcome)
	if err == nil {
		slog.Info("record refreshed", slog.String("uuid", uuid))
		return
	}
	slog.Warn("record refresh failed",
		slog.String("uuid", uuid),
		slog.String("outcome", outcome),
		slog.Any("error", err),
	)
}

func refreshOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, common.ErrForbidden):
		return metrics.OutcomeForbidden
	case errors.Is(err, common.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, common.ErrUpstreamUnreachable):
		return metrics.OutcomeUnreachable
	case errors.Is(err, common.ErrUpstream):
		return metrics.OutcomeUpstream
	default:
		return metrics.OutcomeStoreError
	}
}
