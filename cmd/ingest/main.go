package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"aftermarket/internal/app/di"
	"aftermarket/internal/feature/aftermarket/adapters/cnn"
	"aftermarket/internal/feature/aftermarket/usecase"
	"aftermarket/internal/platform/calendar"
	infradb "aftermarket/internal/platform/db"
	infraredis "aftermarket/internal/platform/redis"
	"aftermarket/internal/platform/schema"
)

func main() {
	force := flag.Bool("force", false, "ingest even on non-trading days")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := infradb.OpenDB()
	if err != nil {
		log.Fatal(err)
	}
	if os.Getenv("RUN_MIGRATIONS") == "true" {
		if err := schema.Apply(ctx, db); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	// 書き込み後にAPIのキャッシュを無効化するためRedisにも接続する
	rdb, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig())
	if err != nil {
		log.Println("[WARN] Redis unavailable. API cache will expire on its own.")
		rdb = nil
	} else {
		defer func() { _ = rdb.Close() }()
	}

	repo := di.NewRecordRepository(rdb, db, nil)
	source := di.NewScraper(cnn.LoadConfig())
	uc := usecase.NewIngestUsecase(source, repo, calendar.New(os.Getenv("AFTER_MARKET_MIC")))

	res, err := uc.Run(ctx, usecase.IngestOptions{Force: *force})
	if err != nil {
		log.Fatal(err)
	}
	if res.Skipped {
		log.Println("not a trading day; skipped")
		return
	}
	log.Printf("ingest ok: scraped=%d invalid=%d inserted=%d duplicates=%d", res.Scraped, res.Invalid, res.Inserted, res.Duplicates)
}
