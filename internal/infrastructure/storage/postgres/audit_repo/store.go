// Package audit_repo persists and reads operation log records.
package audit_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"easyadmin/internal/domain/audit"
	"easyadmin/internal/infrastructure/storage/postgres"
)

// DefaultCompressThreshold is the payload size above which params are stored
// zstd-compressed.
const DefaultCompressThreshold = 10 * 1024

// Store writes audit records to sys_operation_log.
type Store struct {
	txm       *postgres.TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewStore creates a Store.
func NewStore(txm *postgres.TxManager) (*Store, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Store{
		txm:       txm,
		encoder:   encoder,
		decoder:   decoder,
		threshold: DefaultCompressThreshold,
	}, nil
}

// Compact moves a params payload above the threshold into ParamsZstd.
func (s *Store) Compact(rec audit.Record) audit.Record {
	if len(rec.Params) <= s.threshold {
		return rec
	}
	rec.ParamsZstd = s.encoder.EncodeAll([]byte(rec.Params), nil)
	rec.Params = ""
	return rec
}

// Expand restores a compressed params payload.
func (s *Store) Expand(rec *audit.Record) error {
	if len(rec.ParamsZstd) == 0 {
		return nil
	}
	raw, err := s.decoder.DecodeAll(rec.ParamsZstd, nil)
	if err != nil {
		return fmt.Errorf("decompress params of %s: %w", rec.ID, err)
	}
	rec.Params = string(raw)
	rec.ParamsZstd = nil
	return nil
}

func (s *Store) insertQuery(rec audit.Record) squirrel.InsertBuilder {
	rec = s.Compact(rec)
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert("sys_operation_log").
		SetMap(postgres.StructToMap(rec))
}

// Record implements audit.Recorder. The row is written outside any caller
// transaction, so a rolled back operation still leaves its failure record.
func (s *Store) Record(ctx context.Context, rec audit.Record) error {
	sql, args, err := s.insertQuery(rec).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.txm.Pool().Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert operation log: %w", err)
	}
	return nil
}

func (s *Store) purgeQuery(before time.Time) squirrel.DeleteBuilder {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Delete("sys_operation_log").
		Where(squirrel.Lt{"created_time": before})
}

// Purge deletes records created before the cutoff and returns how many went.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	sql, args, err := s.purgeQuery(before).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge: %w", err)
	}

	result, err := s.txm.Pool().Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("purge operation log: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ audit.Recorder = (*Store)(nil)
