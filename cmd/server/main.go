package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"aftermarket/internal/app/di"
	"aftermarket/internal/app/router"
	"aftermarket/internal/feature/aftermarket/transport/handler"
	"aftermarket/internal/feature/aftermarket/usecase"
	"aftermarket/internal/platform/cache"
	infradb "aftermarket/internal/platform/db"
	platformhandler "aftermarket/internal/platform/http/handler"
	jwtmw "aftermarket/internal/platform/jwt"
	infraredis "aftermarket/internal/platform/redis"
	"aftermarket/internal/platform/schema"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}
	ctx := context.Background()

	// db
	db, err := infradb.OpenDB()
	if err != nil {
		log.Fatal(err)
	}
	if os.Getenv("RUN_MIGRATIONS") == "true" {
		if err := schema.Apply(ctx, db); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig()); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Repository（Redisがあればキャッシュでラップ。TTLは書き込みごとに次の引けまで）
	recordRepo := di.NewRecordRepository(rdb, db, cache.TimeUntilNextClose)

	// Usecase
	queryUC := usecase.NewQueryUsecase(recordRepo)

	// Handler
	recordH := handler.NewRecordHandler(queryUC)
	healthH := platformhandler.NewHealthHandler(sqlDB)

	// ルータ生成
	r := router.NewRouter(healthH, recordH)

	// JWT_SECRETチェック（開発中の注意喚起）
	if os.Getenv(jwtmw.EnvKeyJWTSecret) == "" {
		log.Println("[WARN] JWT_SECRET is not set. Protected routes will answer 500.")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
