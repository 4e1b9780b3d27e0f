package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aftermarket/internal/feature/aftermarket/domain/entity"
)

// Source produces one snapshot of after-market movers. Records come back
// without a Date; the ingest stamps them.
type Source interface {
	Scrape(ctx context.Context) ([]entity.Record, error)
}

// Calendar tells whether the exchange traded on a given day.
type Calendar interface {
	IsTradingDay(t time.Time) bool
}

// IngestOptions controls a single ingest run.
type IngestOptions struct {
	Now    time.Time // Observation instant; the clock is used when zero
	Force  bool      // Ingest even on non-trading days
	DryRun bool      // Scrape and validate without writing
}

// IngestResult summarises an ingest run.
type IngestResult struct {
	ObservedAt time.Time
	Skipped    bool // Non-trading day, nothing scraped
	Scraped    int
	Invalid    int
	Inserted   int64
	Duplicates int64
	Records    []entity.Record // Valid records of this run
}

// IngestUsecase scrapes the after-market source and persists the snapshot.
type IngestUsecase struct {
	source   Source
	repo     RecordRepository
	calendar Calendar
	now      func() time.Time
}

// NewIngestUsecase creates an IngestUsecase. calendar may be nil to ingest every day.
func NewIngestUsecase(source Source, repo RecordRepository, calendar Calendar) *IngestUsecase {
	return &IngestUsecase{source: source, repo: repo, calendar: calendar, now: time.Now}
}

// Run performs one scrape-and-store cycle. All records of a run share one
// observation instant so that a snapshot can be read back with a single date.
func (iu *IngestUsecase) Run(ctx context.Context, opts IngestOptions) (IngestResult, error) {
	observedAt := opts.Now
	if observedAt.IsZero() {
		observedAt = iu.now()
	}
	observedAt = observedAt.UTC().Truncate(time.Second)
	res := IngestResult{ObservedAt: observedAt}

	if !opts.Force && iu.calendar != nil && !iu.calendar.IsTradingDay(observedAt) {
		slog.Info("not a trading day, skipping ingest", "date", observedAt.Format(time.DateOnly))
		res.Skipped = true
		return res, nil
	}

	scraped, err := iu.source.Scrape(ctx)
	if err != nil {
		return res, fmt.Errorf("scrape: %w", err)
	}
	res.Scraped = len(scraped)

	valid := make([]entity.Record, 0, len(scraped))
	for _, r := range scraped {
		r.Date = observedAt
		r = r.Normalize()
		if err := r.Validate(); err != nil {
			// 1件の不正データで全体を止めずにログに出力して続行する
			slog.Warn("dropping invalid record", "symbol", r.Symbol, "percentage", r.Percentage, "error", err)
			res.Invalid++
			continue
		}
		valid = append(valid, r)
	}
	res.Records = valid

	if opts.DryRun || len(valid) == 0 {
		return res, nil
	}

	inserted, err := iu.repo.InsertBatch(ctx, valid)
	if err != nil {
		return res, fmt.Errorf("store %d records: %w", len(valid), err)
	}
	res.Inserted = inserted
	res.Duplicates = int64(len(valid)) - inserted

	slog.Info("ingest finished",
		"observed_at", observedAt,
		"scraped", res.Scraped,
		"invalid", res.Invalid,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
	)
	return res, nil
}
