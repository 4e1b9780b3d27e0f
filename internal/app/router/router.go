// Package router wires the HTTP routes of the read API.
package router

import (
	"github.com/gin-gonic/gin"

	"aftermarket/internal/feature/aftermarket/transport/handler"
	platformhandler "aftermarket/internal/platform/http/handler"
	jwtmw "aftermarket/internal/platform/jwt"
)

// NewRouter builds the gin engine. /healthz is public; the after-market
// routes require a bearer token.
func NewRouter(health *platformhandler.HealthHandler, records *handler.RecordHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// 認証不要
	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)

	// 認証必須のルート
	auth := r.Group("/after-market")
	auth.Use(jwtmw.AuthRequired())
	{
		auth.GET("", records.Find)
		auth.GET("/latest", records.Latest)
		auth.GET("/symbols", records.Symbols)
	}

	return r
}
