package service

import (
	"context"
	"encoding/json"
	"subhub/internal/common"
	"subhub/internal/domain/model"
	"subhub/internal/domain/repository"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeInput(t *testing.T, body string) RecordInput {
	t.Helper()
	var in RecordInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestNormalizeRecord(t *testing.T) {
	rec, err := NormalizeRecord(decodeInput(t, `{
		"sub": " https://example.com/sub ",
		"expire": "2030-01-02",
		"note": "n",
		"traffic": {"upload": 1.9, "download": 2, "total": 10}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/sub", rec.Sub)
	assert.Equal(t, "2030-01-02T00:00:00.000Z", rec.Expire)
	require.NotNil(t, rec.Note)
	assert.Equal(t, "n", *rec.Note)
	assert.Equal(t, model.TrafficUsage{Upload: 1, Download: 2, Total: 10}, rec.Traffic)
}

func TestNormalizeRecord_NumericExpireAndDefaults(t *testing.T) {
	rec, err := NormalizeRecord(decodeInput(t, `{"sub":"https://x","expire":2000000000}`))
	require.NoError(t, err)

	assert.Equal(t, "2033-05-18T03:33:20.000Z", rec.Expire)
	assert.Nil(t, rec.Note)
	assert.Equal(t, model.TrafficUsage{}, rec.Traffic)
}

func TestNormalizeRecord_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing sub":      `{"expire":"2030-01-01"}`,
		"blank sub":        `{"sub":"  ","expire":"2030-01-01"}`,
		"missing expire":   `{"sub":"https://x"}`,
		"bad expire":       `{"sub":"https://x","expire":"someday"}`,
		"zero expire":      `{"sub":"https://x","expire":0}`,
		"object expire":    `{"sub":"https://x","expire":{}}`,
		"negative traffic": `{"sub":"https://x","expire":"2030-01-01","traffic":{"upload":-1}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeRecord(decodeInput(t, body))
			assert.ErrorIs(t, err, common.ErrMalformedInput)
		})
	}
}

func TestRecordService_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRecordRepository()
	svc := NewRecordService(repo)

	in := decodeInput(t, `{"sub":"https://x","expire":"2030-01-01T00:00:00Z"}`)
	created, err := svc.Create(ctx, CreateRecordRequest{UUID: "  u-1 ", Record: &in})
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01T00:00:00.000Z", created.Expire)

	stored, err := svc.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, *created, *stored)

	updated, err := svc.Update(ctx, "u-1", decodeInput(t, `{"sub":"https://y","expire":"2031-01-01T00:00:00Z","traffic":{"total":5}}`))
	require.NoError(t, err)
	assert.Equal(t, "https://y", updated.Sub)
	assert.Equal(t, int64(5), updated.Traffic.Total)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "u-1", entries[0].UUID)

	require.NoError(t, svc.Delete(ctx, "u-1"))
	require.NoError(t, svc.Delete(ctx, "u-1"))
	_, err = svc.Get(ctx, "u-1")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestRecordService_CreateRequiresUUIDAndRecord(t *testing.T) {
	svc := NewRecordService(repository.NewMemoryRecordRepository())
	in := decodeInput(t, `{"sub":"https://x","expire":"2030-01-01"}`)

	_, err := svc.Create(context.Background(), CreateRecordRequest{UUID: " ", Record: &in})
	assert.ErrorIs(t, err, common.ErrMalformedInput)

	_, err = svc.Create(context.Background(), CreateRecordRequest{UUID: "u-1"})
	assert.ErrorIs(t, err, common.ErrMalformedInput)
}

func TestRecordService_InvalidInputIsNotStored(t *testing.T) {
	ctx := context.Background()
	svc := NewRecordService(repository.NewMemoryRecordRepository())

	_, err := svc.Update(ctx, "u-1", decodeInput(t, `{"sub":"https://x"}`))
	require.ErrorIs(t, err, common.ErrMalformedInput)

	_, err = svc.Get(ctx, "u-1")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}
