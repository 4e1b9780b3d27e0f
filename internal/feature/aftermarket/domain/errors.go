// Package domain defines domain-level errors for the aftermarket feature.
package domain

import "errors"

// Validation and persistence errors for after-market records.
// Upper layers map these to HTTP statuses or CLI messages.
var (
	// ErrEmptySymbol indicates that a record has no ticker symbol.
	ErrEmptySymbol = errors.New("symbol is empty")

	// ErrSymbolTooLong indicates that a symbol does not fit the VARCHAR(10) column.
	ErrSymbolTooLong = errors.New("symbol exceeds 10 characters")

	// ErrInvalidPercentage indicates a NaN or infinite percentage.
	ErrInvalidPercentage = errors.New("percentage must be a finite number")

	// ErrMissingDate indicates a record without an observation instant.
	// date is part of the primary key and is stored NOT NULL.
	ErrMissingDate = errors.New("date is required")

	// ErrDuplicateRecord is returned when a row for the same (symbol, date) already exists.
	ErrDuplicateRecord = errors.New("record for this symbol and date already exists")
)
