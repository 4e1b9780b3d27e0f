// Package schema owns the DDL of the after_market table and applies it idempotently.
package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
)

const (
	// TableName is the only table of the schema.
	TableName = "after_market"

	// Names of the single-column indexes on symbol, percentage and date.
	IndexSymbol     = "after_market_symbol_idx"
	IndexPercentage = "after_market_percentage_idx"
	IndexDate       = "after_market_date_idx"

	// Dialect names as reported by gorm's Dialector.Name().
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

var (
	// ErrUnsupportedDialect is returned for databases other than Postgres and SQLite.
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
	// ErrSchemaMissing is returned by Verify when the table or one of its indexes is absent.
	ErrSchemaMissing = errors.New("schema object missing")
)

// Indexes lists the single-column indexes in creation order.
var Indexes = []struct {
	Name   string
	Column string
}{
	{IndexSymbol, "symbol"},
	{IndexPercentage, "percentage"},
	{IndexDate, "date"},
}

// date is NOT NULL on every engine: it is part of the primary key.
const postgresTable = `CREATE TABLE IF NOT EXISTS after_market (
    symbol     VARCHAR(10)              NOT NULL,
    percentage DOUBLE PRECISION         NOT NULL,
    date       TIMESTAMP WITH TIME ZONE NOT NULL,
    PRIMARY KEY (symbol, date)
)`

// SQLite ignores VARCHAR lengths, so the CHECK enforces it. Times are stored as UTC text.
const sqliteTable = `CREATE TABLE IF NOT EXISTS after_market (
    symbol     VARCHAR(10)      NOT NULL CHECK (length(symbol) <= 10),
    percentage DOUBLE PRECISION NOT NULL,
    date       TIMESTAMP        NOT NULL,
    PRIMARY KEY (symbol, date)
)`

// Statements returns the DDL for the given gorm dialect name.
func Statements(dialect string) ([]string, error) {
	var table string
	switch dialect {
	case DialectPostgres:
		table = postgresTable
	case DialectSQLite:
		table = sqliteTable
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}

	stmts := make([]string, 0, 1+len(Indexes))
	stmts = append(stmts, table)
	for _, idx := range Indexes {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.Name, TableName, idx.Column))
	}
	return stmts, nil
}

// Apply creates the table and its indexes if they do not exist yet.
// All statements run in one transaction; running Apply again is a no-op.
func Apply(ctx context.Context, db *gorm.DB) error {
	stmts, err := Statements(db.Dialector.Name())
	if err != nil {
		return err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range stmts {
			if err := tx.Exec(s).Error; err != nil {
				return fmt.Errorf("schema: %s: %w", summary(s), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("schema applied", "table", TableName, "dialect", db.Dialector.Name())
	return nil
}

// Verify checks that the table and all indexes exist.
func Verify(ctx context.Context, db *gorm.DB) error {
	m := db.WithContext(ctx).Migrator()
	if !m.HasTable(TableName) {
		return fmt.Errorf("%w: table %s", ErrSchemaMissing, TableName)
	}
	for _, idx := range Indexes {
		if !m.HasIndex(TableName, idx.Name) {
			return fmt.Errorf("%w: index %s", ErrSchemaMissing, idx.Name)
		}
	}
	return nil
}

// summary returns the first line of a statement for error messages.
func summary(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return strings.TrimSpace(stmt[:i])
	}
	return stmt
}
