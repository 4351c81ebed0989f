package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"subhub/internal/common"
	"subhub/internal/domain/model"
)

type pgRecordRepository struct {
	db *sql.DB
}

// NewPgRecordRepository expects the user_records table created by the
// database package migrations.
func NewPgRecordRepository(db *sql.DB) RecordRepository {
	return &pgRecordRepository{db: db}
}

func (r *pgRecordRepository) Get(ctx context.Context, uuid string) (*model.UserRecord, error) {
	query := `SELECT record FROM user_records WHERE uuid = $1`
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, uuid).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrRecordNotFound
		}
		return nil, fmt.Errorf("pgRecordRepository.Get: %w", err)
	}
	rec := &model.UserRecord{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("pgRecordRepository.Get: decode %s: %w", uuid, err)
	}
	return rec, nil
}

func (r *pgRecordRepository) Put(ctx context.Context, uuid string, record model.UserRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("pgRecordRepository.Put: %w", err)
	}
	query := `INSERT INTO user_records (uuid, record, updated_at)
	          VALUES ($1, $2, now())
	          ON CONFLICT (uuid) DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, uuid, string(raw)); err != nil {
		return fmt.Errorf("pgRecordRepository.Put: %w", err)
	}
	return nil
}

func (r *pgRecordRepository) Delete(ctx context.Context, uuid string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_records WHERE uuid = $1`, uuid); err != nil {
		return fmt.Errorf("pgRecordRepository.Delete: %w", err)
	}
	return nil
}

func (r *pgRecordRepository) List(ctx context.Context) ([]model.RecordEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT uuid, record FROM user_records ORDER BY uuid COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("pgRecordRepository.List: %w", err)
	}
	defer rows.Close()

	entries := []model.RecordEntry{}
	for rows.Next() {
		var (
			entry model.RecordEntry
			raw   []byte
		)
		if err := rows.Scan(&entry.UUID, &raw); err != nil {
			return nil, fmt.Errorf("pgRecordRepository.List: scan: %w", err)
		}
		if err := json.Unmarshal(raw, &entry.Record); err != nil {
			return nil, fmt.Errorf("pgRecordRepository.List: decode %s: %w", entry.UUID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgRecordRepository.List: %w", err)
	}
	return entries, nil
}
