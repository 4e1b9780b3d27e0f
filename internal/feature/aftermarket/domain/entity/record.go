// Package entity defines the domain models for the aftermarket feature.
package entity

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"aftermarket/internal/feature/aftermarket/domain"
)

const (
	// MaxSymbolLength mirrors the VARCHAR(10) symbol column.
	MaxSymbolLength = 10
	// SP500Symbol is stored alongside the movers and carries the S&P 500 futures move.
	SP500Symbol = "S&P"
)

// Record is one after-market observation: the percentage change of a
// symbol at a given instant. (Symbol, Date) identifies a record.
type Record struct {
	Symbol     string    // Ticker symbol (e.g., "AAPL", "S&P")
	Percentage float64   // After-market change in percent (e.g., 7.06 for +7.06%)
	Date       time.Time // Observation instant
}

// Normalize trims and upper-cases the symbol and converts Date to UTC.
func (r Record) Normalize() Record {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if !r.Date.IsZero() {
		r.Date = r.Date.UTC()
	}
	return r
}

// Validate checks the column constraints of the after_market table.
func (r Record) Validate() error {
	if r.Symbol == "" {
		return domain.ErrEmptySymbol
	}
	if utf8.RuneCountInString(r.Symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: %q", domain.ErrSymbolTooLong, r.Symbol)
	}
	if math.IsNaN(r.Percentage) || math.IsInf(r.Percentage, 0) {
		return domain.ErrInvalidPercentage
	}
	if r.Date.IsZero() {
		return domain.ErrMissingDate
	}
	return nil
}
