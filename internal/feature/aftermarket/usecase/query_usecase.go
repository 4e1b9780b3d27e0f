// Package usecase implements the business logic of the aftermarket feature.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aftermarket/internal/feature/aftermarket/domain/entity"
)

const (
	// DefaultLimit is the number of records returned when the caller does not ask for one.
	DefaultLimit = 200
	// MaxLimit caps a single history query.
	MaxLimit = 5000
)

// ErrInvalidFilter is returned for contradictory query bounds.
var ErrInvalidFilter = errors.New("invalid filter")

// RecordRepository abstracts the after_market table.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type RecordRepository interface {
	Insert(ctx context.Context, r entity.Record) error
	InsertBatch(ctx context.Context, rs []entity.Record) (int64, error)
	Find(ctx context.Context, f entity.Filter) ([]entity.Record, error)
	Latest(ctx context.Context) ([]entity.Record, error)
	Symbols(ctx context.Context) ([]string, error)
}

// QueryUsecase serves read access to the stored after-market history.
type QueryUsecase struct {
	repo RecordRepository
}

// NewQueryUsecase creates a QueryUsecase on the given repository.
func NewQueryUsecase(repo RecordRepository) *QueryUsecase {
	return &QueryUsecase{repo: repo}
}

// Find validates the filter, applies limit defaults and queries the repository.
func (u *QueryUsecase) Find(ctx context.Context, f entity.Filter) ([]entity.Record, error) {
	f.Symbol = strings.ToUpper(strings.TrimSpace(f.Symbol))
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return nil, fmt.Errorf("%w: from is after to", ErrInvalidFilter)
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return nil, fmt.Errorf("%w: min is greater than max", ErrInvalidFilter)
	}
	if f.Limit <= 0 || f.Limit > MaxLimit {
		f.Limit = DefaultLimit
	}
	return u.repo.Find(ctx, f)
}

// Latest returns the records of the most recent scrape.
func (u *QueryUsecase) Latest(ctx context.Context) ([]entity.Record, error) {
	return u.repo.Latest(ctx)
}

// Symbols lists every symbol seen so far.
func (u *QueryUsecase) Symbols(ctx context.Context) ([]string, error) {
	return u.repo.Symbols(ctx)
}
