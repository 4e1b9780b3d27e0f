package cnn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"aftermarket/internal/feature/aftermarket/domain/entity"
	"aftermarket/internal/feature/aftermarket/usecase"
)

const (
	moversSelector  = "div#wsod_marketMoversContainer tbody > tr"
	headerText      = "Gainers & Losers"
	symbolSelector  = ".wsod_firstCol"
	negChangeClass  = ".negChangePct"
	posChangeClass  = ".posChangePct"
	futuresSelector = "div#premkContent1 .wsod_futureQuote.wsod_futureQuoteFirst .wsod_bold.wsod_aRight"
)

var (
	// ErrMoversNotFound is returned when the page has no movers table.
	ErrMoversNotFound = errors.New("cnn: movers table not found")
	// ErrFuturesNotFound is returned when the page has no S&P futures change.
	ErrFuturesNotFound = errors.New("cnn: S&P futures change not found")
	// ErrInvalidPercentage is returned for change cells that are not of the form "+7.06%".
	ErrInvalidPercentage = errors.New("cnn: invalid percentage")
)

// Scraper is a usecase.Source backed by the after-hours movers page.
type Scraper struct {
	cfg    Config
	client *resty.Client
}

// ScraperがSourceを実装していることをコンパイル時に検証します。
var _ usecase.Source = (*Scraper)(nil)

// NewScraper creates a Scraper. client is typically built with http.NewHTTPClient.
func NewScraper(cfg Config, client *http.Client) *Scraper {
	rc := resty.NewWithClient(client).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html")
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}
	return &Scraper{cfg: cfg, client: rc}
}

// Scrape fetches the page and returns the movers followed by the S&P record.
// The returned records have no Date.
func (s *Scraper) Scrape(ctx context.Context) ([]entity.Record, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.client.R().SetContext(ctx).Get(s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("cnn: fetch %s: %w", s.cfg.URL, err)
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("cnn http %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("cnn: parse html: %w", err)
	}
	return ParseDocument(doc)
}

// ParseDocument extracts the movers and the S&P futures change from a parsed page.
func ParseDocument(doc *goquery.Document) ([]entity.Record, error) {
	movers, err := parseMovers(doc)
	if err != nil {
		return nil, err
	}
	sp, err := parseFutures(doc)
	if err != nil {
		return nil, err
	}
	return append(movers, sp), nil
}

func parseMovers(doc *goquery.Document) ([]entity.Record, error) {
	rows := doc.Find(moversSelector)
	if rows.Length() == 0 {
		return nil, ErrMoversNotFound
	}

	records := make([]entity.Record, 0, rows.Length())
	var parseErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if strings.Contains(row.Text(), headerText) {
			return true
		}

		symbol := strings.TrimSpace(row.Find(symbolSelector).First().Text())

		cell := row.Find(negChangeClass).First()
		if cell.Length() == 0 {
			cell = row.Find(posChangeClass).First()
		}
		if cell.Length() == 0 {
			parseErr = fmt.Errorf("cnn: row %d (%q): no change column", i, symbol)
			return false
		}

		pct, err := ParsePercentage(cell.Text())
		if err != nil {
			parseErr = fmt.Errorf("cnn: row %d (%q): %w", i, symbol, err)
			return false
		}
		records = append(records, entity.Record{Symbol: symbol, Percentage: pct})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return records, nil
}

func parseFutures(doc *goquery.Document) (entity.Record, error) {
	var text string
	doc.Find(futuresSelector).EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if t := strings.TrimSpace(cell.Text()); strings.Contains(t, "%") {
			text = t
			return false
		}
		return true
	})
	if text == "" {
		return entity.Record{}, ErrFuturesNotFound
	}

	pct, err := ParsePercentage(text)
	if err != nil {
		return entity.Record{}, fmt.Errorf("cnn: S&P futures: %w", err)
	}
	return entity.Record{Symbol: entity.SP500Symbol, Percentage: pct}, nil
}

// ParsePercentage converts a change cell such as "+7.06%" or "-3.99%" to 7.06 / -3.99.
func ParsePercentage(s string) (float64, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimSuffix(v, "%")
	v = strings.TrimPrefix(strings.TrimSpace(v), "+")
	if v == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPercentage, s)
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPercentage, s)
	}
	f, _ := d.Float64()
	return f, nil
}
