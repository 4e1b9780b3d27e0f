// Package handler はaftermarketフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"aftermarket/internal/feature/aftermarket/domain/entity"
	"aftermarket/internal/feature/aftermarket/transport/http/dto"
	"aftermarket/internal/feature/aftermarket/usecase"
)

// RecordUsecase はアフターマーケットデータ参照のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type RecordUsecase interface {
	Find(ctx context.Context, f entity.Filter) ([]entity.Record, error)
	Latest(ctx context.Context) ([]entity.Record, error)
	Symbols(ctx context.Context) ([]string, error)
}

// RecordHandler はアフターマーケットデータのHTTPリクエストを処理します。
type RecordHandler struct {
	uc RecordUsecase
}

// NewRecordHandler は指定されたusecaseでRecordHandlerの新しいインスタンスを生成します。
func NewRecordHandler(uc RecordUsecase) *RecordHandler {
	return &RecordHandler{uc: uc}
}

// Find は条件に一致する騰落率の履歴をJSONで返します。
//
// エンドポイント例:
// GET /after-market?symbol=AAPL&from=2024-03-01&to=2024-04-01&min=5&limit=50
func (h *RecordHandler) Find(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	records, err := h.uc.Find(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRecords(records))
}

// Latest は直近の観測時刻のスナップショットを騰落率の降順で返します。
//
// エンドポイント例:
// GET /after-market/latest
func (h *RecordHandler) Latest(c *gin.Context) {
	records, err := h.uc.Latest(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRecords(records))
}

// Symbols は記録済みの銘柄コード一覧を返します。
//
// エンドポイント例:
// GET /after-market/symbols
func (h *RecordHandler) Symbols(c *gin.Context) {
	symbols, err := h.uc.Symbols(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	c.JSON(http.StatusOK, symbols)
}

func (h *RecordHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, usecase.ErrInvalidFilter) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	slog.Error("after-market query failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
}

// parseFilter はクエリパラメータを検索条件に変換します。
func parseFilter(c *gin.Context) (entity.Filter, error) {
	var (
		f   entity.Filter
		err error
	)
	f.Symbol = c.Query("symbol")

	if f.From, err = parseTime("from", c.Query("from")); err != nil {
		return f, err
	}
	if f.To, err = parseTime("to", c.Query("to")); err != nil {
		return f, err
	}
	if f.Min, err = parseFloat("min", c.Query("min")); err != nil {
		return f, err
	}
	if f.Max, err = parseFloat("max", c.Query("max")); err != nil {
		return f, err
	}
	if v := c.Query("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, fmt.Errorf("invalid limit %q", v)
		}
	}
	return f, nil
}

// parseTime はRFC3339または日付（YYYY-MM-DD, UTC）を受け付けます。
func parseTime(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid %s %q: want RFC3339 or YYYY-MM-DD", name, v)
}

func parseFloat(name, v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("invalid %s %q", name, v)
	}
	return &f, nil
}
