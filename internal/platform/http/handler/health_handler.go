// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger はヘルスチェック対象の依存先です。*sql.DB が満たします。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler は /healthz エンドポイントを処理します。
type HealthHandler struct {
	db      Pinger
	timeout time.Duration
}

// NewHealthHandler はHealthHandlerを生成します。dbがnilの場合はプロセスの生存のみを報告します。
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second}
}

// Health はHTTPメソッドに応じてレスポンスし、キャッシュを防止します。
// データベースに到達できない場合は503を返します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	status, dbState := http.StatusOK, "ok"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			slog.Error("health check: database unreachable", "error", err)
			status, dbState = http.StatusServiceUnavailable, "unreachable"
		}
	} else {
		dbState = "skipped"
	}

	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}
	body := gin.H{"status": "ok", "database": dbState}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
