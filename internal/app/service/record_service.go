package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"subhub/internal/common"
	"subhub/internal/domain/model"
	"subhub/internal/domain/repository"
)

// RecordInput is the admin-supplied form of a record. Expire may be a date
// string or a number of Unix seconds.
type RecordInput struct {
	Sub     string        `json:"sub"`
	Expire  any           `json:"expire"`
	Note    *string       `json:"note,omitempty"`
	Traffic *TrafficInput `json:"traffic,omitempty"`
}

type TrafficInput struct {
	Upload   float64 `json:"upload"`
	Download float64 `json:"download"`
	Total    float64 `json:"total"`
}

type CreateRecordRequest struct {
	UUID   string       `json:"uuid"`
	Record *RecordInput `json:"record"`
}

type RecordService struct {
	repo repository.RecordRepository
}

func NewRecordService(repo repository.RecordRepository) *RecordService {
	return &RecordService{repo: repo}
}

func (s *RecordService) List(ctx context.Context) ([]model.RecordEntry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return entries, nil
}

func (s *RecordService) Get(ctx context.Context, uuid string) (*model.UserRecord, error) {
	return s.repo.Get(ctx, uuid)
}

func (s *RecordService) Create(ctx context.Context, req CreateRecordRequest) (*model.UserRecord, error) {
	uuid := strings.TrimSpace(req.UUID)
	if uuid == "" || req.Record == nil {
		return nil, fmt.Errorf("uuid and record are required: %w", common.ErrMalformedInput)
	}
	return s.put(ctx, uuid, *req.Record)
}

// Update replaces the stored record wholesale; it creates the record if absent.
func (s *RecordService) Update(ctx context.Context, uuid string, in RecordInput) (*model.UserRecord, error) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return nil, fmt.Errorf("missing user id: %w", common.ErrMalformedInput)
	}
	return s.put(ctx, uuid, in)
}

func (s *RecordService) Delete(ctx context.Context, uuid string) error {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return fmt.Errorf("missing user id: %w", common.ErrMalformedInput)
	}
	if err := s.repo.Delete(ctx, uuid); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (s *RecordService) put(ctx context.Context, uuid string, in RecordInput) (*model.UserRecord, error) {
	rec, err := NormalizeRecord(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, uuid, rec); err != nil {
		return nil, fmt.Errorf("store record: %w", err)
	}
	return &rec, nil
}

// NormalizeRecord validates admin input and converts it to the stored form.
func NormalizeRecord(in RecordInput) (model.UserRecord, error) {
	sub := strings.TrimSpace(in.Sub)
	if sub == "" {
		return model.UserRecord{}, fmt.Errorf("subscription URL is required: %w", common.ErrMalformedInput)
	}

	var rawExpire string
	switch v := in.Expire.(type) {
	case string:
		rawExpire = v
	case float64:
		rawExpire = strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
	default:
		return model.UserRecord{}, fmt.Errorf("expiration must be a date or Unix seconds: %w", common.ErrMalformedInput)
	}
	if strings.TrimSpace(rawExpire) == "" {
		return model.UserRecord{}, fmt.Errorf("expiration is required: %w", common.ErrMalformedInput)
	}
	expire, ok := ParseExpire(rawExpire)
	if !ok {
		return model.UserRecord{}, fmt.Errorf("expiration %q is not a valid date: %w", rawExpire, common.ErrMalformedInput)
	}

	rec := model.UserRecord{Sub: sub, Expire: expire, Note: in.Note}
	if in.Traffic != nil {
		var err error
		if rec.Traffic.Upload, err = byteCount("upload", in.Traffic.Upload); err != nil {
			return model.UserRecord{}, err
		}
		if rec.Traffic.Download, err = byteCount("download", in.Traffic.Download); err != nil {
			return model.UserRecord{}, err
		}
		if rec.Traffic.Total, err = byteCount("total", in.Traffic.Total); err != nil {
			return model.UserRecord{}, err
		}
	}
	return rec, nil
}

func byteCount(field string, v float64) (int64, error) {
	if v < 0 || v >= math.MaxInt64 {
		return 0, fmt.Errorf("traffic %s must be a non-negative byte count: %w", field, common.ErrMalformedInput)
	}
	return int64(v), nil
}
