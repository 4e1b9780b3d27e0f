// Package adapters provides the gorm-backed repository of the aftermarket feature.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aftermarket/internal/feature/aftermarket/domain"
	"aftermarket/internal/feature/aftermarket/domain/entity"
	"aftermarket/internal/feature/aftermarket/usecase"
	"aftermarket/internal/platform/schema"
)

// Postgres SQLSTATE codes translated into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgStringDataTruncated = "22001"
)

const insertBatchSize = 500

// recordPostgres is the RecordRepository implementation on top of gorm.
// It is exercised against Postgres in production and SQLite in tests.
type recordPostgres struct {
	db *gorm.DB
}

var _ usecase.RecordRepository = (*recordPostgres)(nil)

// NewRecordRepository creates a repository on the given connection.
// The after_market table must already exist (see schema.Apply).
func NewRecordRepository(db *gorm.DB) *recordPostgres {
	return &recordPostgres{db: db}
}

// RecordModel maps a row of the after_market table.
type RecordModel struct {
	Symbol     string    `gorm:"column:symbol;primaryKey;size:10;not null"`
	Percentage float64   `gorm:"column:percentage;not null"`
	Date       time.Time `gorm:"column:date;primaryKey;type:timestamptz;not null"`
}

func (RecordModel) TableName() string {
	return schema.TableName
}

func toModel(e entity.Record) RecordModel {
	return RecordModel{
		Symbol:     e.Symbol,
		Percentage: e.Percentage,
		Date:       e.Date.UTC(),
	}
}

func toEntity(m RecordModel) entity.Record {
	return entity.Record{
		Symbol:     m.Symbol,
		Percentage: m.Percentage,
		Date:       m.Date.UTC(),
	}
}

// Insert stores one record. It returns domain.ErrDuplicateRecord when a row
// with the same (symbol, date) exists.
func (r *recordPostgres) Insert(ctx context.Context, rec entity.Record) error {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return err
	}

	m := toModel(rec)
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrDuplicateRecord
	}
	return nil
}

// InsertBatch stores records in one transaction, skipping rows whose
// (symbol, date) already exists. It returns the number of new rows.
func (r *recordPostgres) InsertBatch(ctx context.Context, recs []entity.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	ms := make([]RecordModel, 0, len(recs))
	for i, rec := range recs {
		rec = rec.Normalize()
		if err := rec.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		ms = append(ms, toModel(rec))
	}

	var inserted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ms, insertBatchSize)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, translateError(err)
	}
	return inserted, nil
}

// Find returns records matching the filter, newest first.
func (r *recordPostgres) Find(ctx context.Context, f entity.Filter) ([]entity.Record, error) {
	q := r.db.WithContext(ctx).Model(&RecordModel{})
	if f.Symbol != "" {
		q = q.Where("symbol = ?", f.Symbol)
	}
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("date < ?", f.To.UTC())
	}
	if f.Min != nil {
		q = q.Where("percentage >= ?", *f.Min)
	}
	if f.Max != nil {
		q = q.Where("percentage <= ?", *f.Max)
	}
	q = q.Order("date DESC").Order("symbol ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []RecordModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// Latest returns every record of the most recent observation, biggest gainers first.
func (r *recordPostgres) Latest(ctx context.Context) ([]entity.Record, error) {
	db := r.db.WithContext(ctx)

	var newest RecordModel
	if err := db.Order("date DESC").Take(&newest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []entity.Record{}, nil
		}
		return nil, err
	}

	var rows []RecordModel
	if err := db.Where("date = ?", newest.Date.UTC()).
		Order("percentage DESC").
		Order("symbol ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// Symbols returns the distinct symbols ever recorded, ascending.
func (r *recordPostgres) Symbols(ctx context.Context) ([]string, error) {
	var out []string
	if err := r.db.WithContext(ctx).
		Model(&RecordModel{}).
		Distinct().
		Order("symbol ASC").
		Pluck("symbol", &out).Error; err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func toEntities(rows []RecordModel) []entity.Record {
	out := make([]entity.Record, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out
}

// translateError maps driver errors onto domain errors.
func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateRecord
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.ErrDuplicateRecord
		case pgStringDataTruncated:
			return fmt.Errorf("%w: %s", domain.ErrSymbolTooLong, pgErr.Message)
		}
	}
	return err
}
