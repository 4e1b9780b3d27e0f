package adapters

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"aftermarket/internal/feature/aftermarket/domain"
	"aftermarket/internal/feature/aftermarket/domain/entity"
	"aftermarket/internal/platform/schema"
)

// setupTestDB はスキーマ適用済みのインメモリSQLiteデータベースを準備します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to initialize test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, schema.Apply(context.Background(), db), "failed to apply schema")
	return db
}

// seedRecord はテスト用のレコードをデータベースに直接作成します。
func seedRecord(t *testing.T, db *gorm.DB, symbol string, pct float64, date time.Time) {
	t.Helper()

	m := RecordModel{Symbol: symbol, Percentage: pct, Date: date.UTC()}
	require.NoError(t, db.Create(&m).Error, "failed to seed record")
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&RecordModel{}).Count(&n).Error)
	return n
}

func ptr(f float64) *float64 { return &f }

var baseTime = time.Date(2024, 3, 15, 21, 30, 0, 0, time.UTC)

func TestNewRecordRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewRecordRepository(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestRecordModel_TableName(t *testing.T) {
	assert.Equal(t, "after_market", RecordModel{}.TableName())
}

func TestRecordPostgres_Insert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		record    entity.Record
		setupFunc func(t *testing.T, db *gorm.DB)
		wantErr   error
		wantRows  int64
	}{
		{
			name:     "success: insert one record",
			record:   entity.Record{Symbol: "AAPL", Percentage: 7.06, Date: baseTime},
			wantRows: 1,
		},
		{
			name:     "success: zero percentage is stored",
			record:   entity.Record{Symbol: "MSFT", Percentage: 0, Date: baseTime},
			wantRows: 1,
		},
		{
			name:   "error: duplicate symbol and date",
			record: entity.Record{Symbol: "AAPL", Percentage: 1.0, Date: baseTime},
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedRecord(t, db, "AAPL", 7.06, baseTime)
			},
			wantErr:  domain.ErrDuplicateRecord,
			wantRows: 1,
		},
		{
			name:   "error: duplicate detected across time zones",
			record: entity.Record{Symbol: "AAPL", Percentage: 1.0, Date: baseTime.In(time.FixedZone("EST", -5*60*60))},
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedRecord(t, db, "AAPL", 7.06, baseTime)
			},
			wantErr:  domain.ErrDuplicateRecord,
			wantRows: 1,
		},
		{
			name:     "error: symbol longer than 10 characters",
			record:   entity.Record{Symbol: "ABCDEFGHIJK", Percentage: 1.0, Date: baseTime},
			wantErr:  domain.ErrSymbolTooLong,
			wantRows: 0,
		},
		{
			name:     "error: missing date",
			record:   entity.Record{Symbol: "AAPL", Percentage: 1.0},
			wantErr:  domain.ErrMissingDate,
			wantRows: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			repo := NewRecordRepository(db)
			if tt.setupFunc != nil {
				tt.setupFunc(t, db)
			}

			err := repo.Insert(context.Background(), tt.record)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantRows, countRows(t, db))
		})
	}
}

func TestRecordPostgres_Insert_NormalizesSymbol(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewRecordRepository(db)

	require.NoError(t, repo.Insert(context.Background(), entity.Record{Symbol: " tsla ", Percentage: -3.99, Date: baseTime}))

	var m RecordModel
	require.NoError(t, db.First(&m).Error)
	assert.Equal(t, "TSLA", m.Symbol)
	assert.Equal(t, -3.99, m.Percentage)
	assert.True(t, baseTime.Equal(m.Date), "date does not match")
}

func TestRecordPostgres_InsertBatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		records      []entity.Record
		setupFunc    func(t *testing.T, db *gorm.DB)
		wantInserted int64
		wantErr      error
		wantRows     int64
	}{
		{
			name: "success: insert all",
			records: []entity.Record{
				{Symbol: "AAPL", Percentage: 7.06, Date: baseTime},
				{Symbol: "TSLA", Percentage: -3.99, Date: baseTime},
				{Symbol: entity.SP500Symbol, Percentage: -0.71, Date: baseTime},
			},
			wantInserted: 3,
			wantRows:     3,
		},
		{
			name:         "success: empty slice",
			records:      []entity.Record{},
			wantInserted: 0,
			wantRows:     0,
		},
		{
			name: "success: existing rows are skipped",
			records: []entity.Record{
				{Symbol: "AAPL", Percentage: 9.99, Date: baseTime},
				{Symbol: "TSLA", Percentage: -3.99, Date: baseTime},
			},
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedRecord(t, db, "AAPL", 7.06, baseTime)
			},
			wantInserted: 1,
			wantRows:     2,
		},
		{
			name: "success: duplicates inside the batch are skipped",
			records: []entity.Record{
				{Symbol: "AAPL", Percentage: 7.06, Date: baseTime},
				{Symbol: "aapl", Percentage: 7.06, Date: baseTime},
			},
			wantInserted: 1,
			wantRows:     1,
		},
		{
			name: "error: invalid record aborts the whole batch",
			records: []entity.Record{
				{Symbol: "AAPL", Percentage: 7.06, Date: baseTime},
				{Symbol: "", Percentage: 1, Date: baseTime},
			},
			wantErr:  domain.ErrEmptySymbol,
			wantRows: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			repo := NewRecordRepository(db)
			if tt.setupFunc != nil {
				tt.setupFunc(t, db)
			}

			inserted, err := repo.InsertBatch(context.Background(), tt.records)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantInserted, inserted)
			}
			assert.Equal(t, tt.wantRows, countRows(t, db))
		})
	}
}

func TestRecordPostgres_Find(t *testing.T) {
	t.Parallel()

	seedAll := func(t *testing.T, db *gorm.DB) {
		seedRecord(t, db, "AAPL", 7.06, baseTime)
		seedRecord(t, db, "TSLA", -3.99, baseTime)
		seedRecord(t, db, "AAPL", 1.25, baseTime.AddDate(0, 0, 1))
		seedRecord(t, db, "NVDA", 12.5, baseTime.AddDate(0, 0, 2))
	}

	tests := []struct {
		name         string
		filter       entity.Filter
		validateFunc func(t *testing.T, records []entity.Record)
	}{
		{
			name:   "success: no filter returns all, newest first",
			filter: entity.Filter{},
			validateFunc: func(t *testing.T, records []entity.Record) {
				require.Len(t, records, 4)
				assert.Equal(t, "NVDA", records[0].Symbol)
				assert.Equal(t, "AAPL", records[1].Symbol)
				// same date ordered by symbol
				assert.Equal(t, "AAPL", records[2].Symbol)
				assert.Equal(t, "TSLA", records[3].Symbol)
			},
		},
		{
			name:   "success: filter by symbol",
			filter: entity.Filter{Symbol: "AAPL"},
			validateFunc: func(t *testing.T, records []entity.Record) {
				require.Len(t, records, 2)
				for _, r := range records {
					assert.Equal(t, "AAPL", r.Symbol)
				}
			},
		},
		{
			name:   "success: filter by date range (to is exclusive)",
			filter: entity.Filter{From: baseTime, To: baseTime.AddDate(0, 0, 1)},
			validateFunc: func(t *testing.T, records []entity.Record) {
				require.Len(t, records, 2)
				for _, r := range records {
					assert.True(t, baseTime.Equal(r.Date))
				}
			},
		},
		{
			name:   "success: filter by percentage range",
			filter: entity.Filter{Min: ptr(0), Max: ptr(7.06)},
			validateFunc: func(t *testing.T, records []entity.Record) {
				require.Len(t, records, 2)
				for _, r := range records {
					assert.GreaterOrEqual(t, r.Percentage, 0.0)
					assert.LessOrEqual(t, r.Percentage, 7.06)
				}
			},
		},
		{
			name:   "success: losers only",
			filter: entity.Filter{Max: ptr(0)},
			validateFunc: func(t *testing.T, records []entity.Record) {
				require.Len(t, records, 1)
				assert.Equal(t, "TSLA", records[0].Symbol)
			},
		},
		{
			name:   "success: respect limit",
			filter: entity.Filter{Limit: 2},
			validateFunc: func(t *testing.T, records []entity.Record) {
				assert.Len(t, records, 2)
			},
		},
		{
			name:   "success: empty result",
			filter: entity.Filter{Symbol: "NOTFOUND"},
			validateFunc: func(t *testing.T, records []entity.Record) {
				assert.Empty(t, records)
				assert.NotNil(t, records)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			seedAll(t, db)
			repo := NewRecordRepository(db)

			records, err := repo.Find(context.Background(), tt.filter)

			require.NoError(t, err)
			tt.validateFunc(t, records)
		})
	}
}

func TestRecordPostgres_Find_EntityMapping(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewRecordRepository(db)
	seedRecord(t, db, entity.SP500Symbol, -0.71, baseTime)

	result, err := repo.Find(context.Background(), entity.Filter{Symbol: entity.SP500Symbol})
	require.NoError(t, err)
	require.Len(t, result, 1)

	assert.Equal(t, "S&P", result[0].Symbol, "Symbol does not match")
	assert.Equal(t, -0.71, result[0].Percentage, "Percentage does not match")
	assert.Equal(t, baseTime.Unix(), result[0].Date.Unix(), "Date does not match")
	assert.Equal(t, time.UTC, result[0].Date.Location())
}

func TestRecordPostgres_Latest(t *testing.T) {
	t.Parallel()

	t.Run("empty table", func(t *testing.T) {
		t.Parallel()

		repo := NewRecordRepository(setupTestDB(t))

		records, err := repo.Latest(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("returns only the newest observation ordered by percentage", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		next := baseTime.AddDate(0, 0, 1)
		seedRecord(t, db, "AAPL", 7.06, baseTime)
		seedRecord(t, db, "TSLA", -3.99, next)
		seedRecord(t, db, "NVDA", 12.5, next)
		seedRecord(t, db, entity.SP500Symbol, 0.4, next)
		repo := NewRecordRepository(db)

		records, err := repo.Latest(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"NVDA", "S&P", "TSLA"}, []string{records[0].Symbol, records[1].Symbol, records[2].Symbol})
		for _, r := range records {
			assert.True(t, next.Equal(r.Date))
		}
	})
}

func TestRecordPostgres_Symbols(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedRecord(t, db, "TSLA", 1, baseTime)
	seedRecord(t, db, "AAPL", 1, baseTime)
	seedRecord(t, db, "AAPL", 2, baseTime.AddDate(0, 0, 1))
	repo := NewRecordRepository(db)

	symbols, err := repo.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "TSLA"}, symbols)
}

func TestRecordPostgres_Symbols_Empty(t *testing.T) {
	t.Parallel()

	repo := NewRecordRepository(setupTestDB(t))

	symbols, err := repo.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, symbols)
}

// TestTranslateError はPostgresのエラーコードがドメインエラーに変換されることを検証します。
func TestTranslateError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")

	tests := []struct {
		name    string
		input   error
		wantErr error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, domain.ErrDuplicateRecord},
		{"value too long", &pgconn.PgError{Code: "22001", Message: "value too long"}, domain.ErrSymbolTooLong},
		{"wrapped value too long", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "22001"}), domain.ErrSymbolTooLong},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, domain.ErrDuplicateRecord},
		{"other pg error passes through", &pgconn.PgError{Code: "40001"}, nil},
		{"plain error passes through", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := translateError(tt.input)
			if tt.wantErr == nil {
				assert.Same(t, tt.input, err)
				assert.False(t, errors.Is(err, domain.ErrDuplicateRecord))
				assert.False(t, errors.Is(err, domain.ErrSymbolTooLong))
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
