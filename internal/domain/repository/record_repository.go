package repository

import (
	"context"
	"sort"
	"subhub/internal/common"
	"subhub/internal/domain/model"
	"sync"
)

// RecordRepository stores user records keyed by an opaque uuid.
// Writes are last-write-wins per key; there is no compare-and-swap.
type RecordRepository interface {
	// Get returns common.ErrRecordNotFound when uuid is not stored.
	Get(ctx context.Context, uuid string) (*model.UserRecord, error)
	Put(ctx context.Context, uuid string, record model.UserRecord) error
	// Delete succeeds when uuid is already absent.
	Delete(ctx context.Context, uuid string) error
	List(ctx context.Context) ([]model.RecordEntry, error)
}

type memoryRecordRepository struct {
	mu      sync.RWMutex
	records map[string]model.UserRecord
}

func NewMemoryRecordRepository() RecordRepository {
	return &memoryRecordRepository{records: make(map[string]model.UserRecord)}
}

func (r *memoryRecordRepository) Get(_ context.Context, uuid string) (*model.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[uuid]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	rec.Note = cloneNote(rec.Note)
	return &rec, nil
}

func (r *memoryRecordRepository) Put(_ context.Context, uuid string, record model.UserRecord) error {
	record.Note = cloneNote(record.Note)
	r.mu.Lock()
	r.records[uuid] = record
	r.mu.Unlock()
	return nil
}

func (r *memoryRecordRepository) Delete(_ context.Context, uuid string) error {
	r.mu.Lock()
	delete(r.records, uuid)
	r.mu.Unlock()
	return nil
}

func (r *memoryRecordRepository) List(_ context.Context) ([]model.RecordEntry, error) {
	r.mu.RLock()
	entries := make([]model.RecordEntry, 0, len(r.records))
	for uuid, rec := range r.records {
		rec.Note = cloneNote(rec.Note)
		entries = append(entries, model.RecordEntry{UUID: uuid, Record: rec})
	}
	r.mu.RUnlock()
	sortEntries(entries)
	return entries, nil
}

func cloneNote(note *string) *string {
	if note == nil {
		return nil
	}
	n := *note
	return &n
}

func sortEntries(entries []model.RecordEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].UUID < entries[j].UUID })
}
