package usecase

import (
	"context"
	"errors"

	"aftermarket/internal/feature/aftermarket/domain/entity"
)

// ErrDB はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDB = errors.New("database error")

// mockRecordRepository はRecordRepositoryインターフェースのモック実装です。
type mockRecordRepository struct {
	InsertFunc       func(ctx context.Context, r entity.Record) error
	InsertBatchFunc  func(ctx context.Context, rs []entity.Record) (int64, error)
	FindFunc         func(ctx context.Context, f entity.Filter) ([]entity.Record, error)
	LatestFunc       func(ctx context.Context) ([]entity.Record, error)
	SymbolsFunc      func(ctx context.Context) ([]string, error)
	FindCalls        int
	InsertBatchCalls int
}

func (m *mockRecordRepository) Insert(ctx context.Context, r entity.Record) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, r)
	}
	return errors.New("InsertFunc is not implemented")
}

func (m *mockRecordRepository) InsertBatch(ctx context.Context, rs []entity.Record) (int64, error) {
	m.InsertBatchCalls++
	if m.InsertBatchFunc != nil {
		return m.InsertBatchFunc(ctx, rs)
	}
	return 0, errors.New("InsertBatchFunc is not implemented")
}

func (m *mockRecordRepository) Find(ctx context.Context, f entity.Filter) ([]entity.Record, error) {
	m.FindCalls++
	if m.FindFunc != nil {
		return m.FindFunc(ctx, f)
	}
	return nil, errors.New("FindFunc is not implemented")
}

func (m *mockRecordRepository) Latest(ctx context.Context) ([]entity.Record, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx)
	}
	return nil, errors.New("LatestFunc is not implemented")
}

func (m *mockRecordRepository) Symbols(ctx context.Context) ([]string, error) {
	if m.SymbolsFunc != nil {
		return m.SymbolsFunc(ctx)
	}
	return nil, errors.New("SymbolsFunc is not implemented")
}
