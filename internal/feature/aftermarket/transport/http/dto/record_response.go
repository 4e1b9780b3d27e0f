// Package dto defines the JSON shapes of the after-market API.
package dto

import (
	"time"

	"aftermarket/internal/feature/aftermarket/domain/entity"
)

// RecordResponse はアフターマーケット騰落率のレスポンスDTOです。
type RecordResponse struct {
	Symbol     string  `json:"symbol"`     // 銘柄コード
	Percentage float64 `json:"percentage"` // 騰落率（%）
	Date       string  `json:"date"`       // 観測時刻（RFC3339, UTC）
}

// ErrorResponse はエラーレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromRecords converts domain records to response DTOs. It never returns nil.
func FromRecords(rs []entity.Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, RecordResponse{
			Symbol:     r.Symbol,
			Percentage: r.Percentage,
			Date:       r.Date.UTC().Format(time.RFC3339),
		})
	}
	return out
}
