package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"subhub/internal/common"
	"subhub/internal/common/security"
	"subhub/internal/domain/model"
	"subhub/internal/domain/repository"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) *security.Gate {
	t.Helper()
	codec, err := security.NewTokenCodec([]byte("refresh-test"))
	require.NoError(t, err)
	return security.NewGate(codec)
}

func seedRecord(t *testing.T, repo repository.RecordRepository, uuid, sub string) model.UserRecord {
	t.Helper()
	note := "family plan"
	rec := model.UserRecord{
		Sub:     sub,
		Expire:  "2030-01-01T00:00:00.000Z",
		Note:    &note,
		Traffic: model.TrafficUsage{Upload: 1, Download: 1, Total: 100},
	}
	require.NoError(t, repo.Put(context.Background(), uuid, rec))
	return rec
}

func newRefreshFixture(t *testing.T, handler http.HandlerFunc) (*RefreshService, repository.RecordRepository, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	repo := repository.NewMemoryRecordRepository()
	svc := NewRefreshService(repo, newTestGate(t), srv.Client(), time.Second, nil)
	return svc, repo, srv
}

func TestRefresh_MergesTrafficAndKeepsOtherFields(t *testing.T) {
	seen := make(chan http.Header, 1)
	svc, repo, srv := newRefreshFixture(t, func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Clone()
		w.Header().Set("subscription-userinfo", "upload=100;download=200;total=9000")
		w.WriteHeader(http.StatusOK)
	})
	original := seedRecord(t, repo, "u-1", "")
	original.Sub = srv.URL + "/sub?token=abc"
	require.NoError(t, repo.Put(context.Background(), "u-1", original))

	got, err := svc.Refresh(context.Background(), model.AdminPrincipal(), "u-1")
	require.NoError(t, err)

	assert.Equal(t, model.TrafficUsage{Upload: 100, Download: 200, Total: 9000}, got.Traffic)
	assert.Equal(t, original.Expire, got.Expire)
	assert.Equal(t, original.Sub, got.Sub)
	require.NotNil(t, got.Note)
	assert.Equal(t, "family plan", *got.Note)
	sent := <-seen
	assert.Equal(t, "no-cache", sent.Get("Cache-Control"))
	assert.Equal(t, "no-cache", sent.Get("Pragma"))

	stored, err := repo.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, *got, *stored)
}

func TestRefresh_ExpiresHeaderUpdatesExpiry(t *testing.T) {
	svc, repo, srv := newRefreshFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-subscription-expires", "2000000000")
	})
	original := seedRecord(t, repo, "u-1", srv.URL)

	got, err := svc.Refresh(context.Background(), model.AdminPrincipal(), "u-1")
	require.NoError(t, err)

	assert.Equal(t, "2033-05-18T03:33:20.000Z", got.Expire)
	assert.Equal(t, original.Traffic, got.Traffic)
}

func TestRefresh_UpstreamErrorLeavesRecordUnchanged(t *testing.T) {
	svc, repo, srv := newRefreshFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("subscription-userinfo", "upload=999")
		w.WriteHeader(http.StatusInternalServerError)
	})
	original := seedRecord(t, repo, "u-1", srv.URL)

	_, err := svc.Refresh(context.Background(), model.AdminPrincipal(), "u-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstream)
	var statusErr *common.UpstreamStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, http.StatusBadGateway, common.HTTPStatusFromError(err))

	stored, err := repo.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, original, *stored)
}

func TestRefresh_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	repo := repository.NewMemoryRecordRepository()
	original := seedRecord(t, repo, "u-1", url)
	svc := NewRefreshService(repo, newTestGate(t), http.DefaultClient, time.Second, nil)

	_, err := svc.Refresh(context.Background(), model.AdminPrincipal(), "u-1")
	assert.ErrorIs(t, err, common.ErrUpstreamUnreachable)

	stored, err := repo.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, original, *stored)
}

func TestRefresh_InvalidURLIsUnreachable(t *testing.T) {
	repo := repository.NewMemoryRecordRepository()
	seedRecord(t, repo, "u-1", "://not a url")
	svc := NewRefreshService(repo, newTestGate(t), http.DefaultClient, time.Second, nil)

	_, err := svc.Refresh(context.Background(), model.AdminPrincipal(), "u-1")
	assert.ErrorIs(t, err, common.ErrUpstreamUnreachable)
}

func TestRefresh_TimeoutIsUnreachable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	repo := repository.NewMemoryRecordRepository()
	seedRecord(t, repo, "u-1", srv.URL)
	svc := NewRefreshService(repo, newTestGate(t), srv.Client(), 50*time.Millisecond, nil)

	_, err := svc.Refresh(context.Background(), model.AdminPrincipal(), "u-1")
	assert.ErrorIs(t, err, common.ErrUpstreamUnreachable)
}

func TestRefresh_ForbiddenForOtherUser(t *testing.T) {
	var calls atomic.Int32
	svc, repo, srv := newRefreshFixture(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	seedRecord(t, repo, "u-1", srv.URL)

	_, err := svc.Refresh(context.Background(), model.UserPrincipal("u-2"), "u-1")
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Zero(t, calls.Load())
}

func TestRefresh_UserMayRefreshOwnRecord(t *testing.T) {
	svc, repo, srv := newRefreshFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("subscription-userinfo", "total=5")
	})
	seedRecord(t, repo, "u-1", srv.URL)

	got, err := svc.Refresh(context.Background(), model.UserPrincipal("u-1"), "u-1")
	require.NoError(t, err)
	assert.Equal(t, model.TrafficUsage{Total: 5}, got.Traffic)
}

func TestRefresh_NotFound(t *testing.T) {
	svc, _, _ := newRefreshFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := svc.Refresh(context.Background(), model.AdminPrincipal(), "ghost")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
	assert.Equal(t, http.StatusNotFound, common.HTTPStatusFromError(err))
}

func TestRefresh_MissingID(t *testing.T) {
	svc, _, _ := newRefreshFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := svc.Refresh(context.Background(), model.AdminPrincipal(), "  ")
	assert.ErrorIs(t, err, common.ErrMalformedInput)
}

func TestRefresh_IgnoresClientCancellation(t *testing.T) {
	svc, repo, srv := newRefreshFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("subscription-userinfo", "upload=7")
	})
	seedRecord(t, repo, "u-1", srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := svc.Refresh(ctx, model.AdminPrincipal(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Traffic.Upload)
}

type failingPutRepo struct {
	repository.RecordRepository
}

func (failingPutRepo) Put(context.Context, string, model.UserRecord) error {
	return errors.New("disk full")
}

func TestRefresh_StoreFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	mem := repository.NewMemoryRecordRepository()
	seedRecord(t, mem, "u-1", srv.URL)
	svc := NewRefreshService(failingPutRepo{mem}, newTestGate(t), srv.Client(), time.Second, nil)

	_, err := svc.Refresh(context.Background(), model.AdminPrincipal(), "u-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, common.HTTPStatusFromError(err))
}
