package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"

	"github.com/aluiziolira/books-explorer/config"
	"github.com/aluiziolira/books-explorer/models"
	"github.com/aluiziolira/books-explorer/parser"
)

// Sink receives the books of each listing page, in page order.
type Sink interface {
	Process(books ...*models.Book) error
}

// Scraper walks the catalogue one listing page at a time, following the
// next link until the last page, the page cap, or cancellation.
// A Scraper remembers visited URLs and is meant for a single Run.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	Metrics   *Metrics

	sleep func(time.Duration)

	// fetch state of the request in flight; colly calls back synchronously
	current      *pageFetch
	errorsByType map[string]int
}

type pageFetch struct {
	received bool
	body     []byte
	url      *url.URL
	status   int
	err      error
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	s := &Scraper{
		cfg:          cfg,
		collector:    collector,
		Metrics:      NewMetrics(),
		sleep:        time.Sleep,
		errorsByType: make(map[string]int),
	}
	s.configureHandlers()
	return s, nil
}

// Run crawls from the base URL and hands every parsed book to sink.
// The returned result is never nil, even when the run fails; a failed page
// fetch is reported as a FetchError.
func (s *Scraper) Run(ctx context.Context, sink Sink) (*models.ScraperResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.ScraperResult{
		RunID:          uuid.NewString(),
		StartTime:      time.Now(),
		SkippedByField: make(map[string]int),
	}
	defer func() {
		result.EndTime = time.Now()
		result.ErrorsByType = s.snapshotErrors()
	}()

	logger := slog.With(slog.String("run_id", result.RunID))
	logger.Info("scrape started",
		slog.String("url", s.cfg.BaseURL),
		slog.Int("max_pages", s.cfg.MaxPages),
		slog.Duration("delay", s.cfg.Delay),
	)

	next := s.cfg.BaseURL
	for next != "" {
		if s.cfg.MaxPages > 0 && result.PageCount >= s.cfg.MaxPages {
			result.StopReason = models.StopPageCap
			logger.Info("page cap reached", slog.Int("pages", result.PageCount))
			return result, nil
		}
		if result.PageCount > 0 && s.cfg.Delay > 0 {
			s.sleep(s.cfg.Delay)
		}
		if err := ctx.Err(); err != nil {
			result.StopReason = models.StopInterrupted
			logger.Warn("scrape interrupted", slog.Int("pages", result.PageCount), slog.Any("error", err))
			return result, nil
		}

		listing, err := s.scrapePage(logger, next, result, sink)
		if errors.Is(err, colly.ErrAlreadyVisited) {
			result.StopReason = models.StopRevisit
			logger.Warn("next link points to a visited page", slog.String("url", next))
			return result, nil
		}
		if err != nil {
			return result, err
		}
		next = listing.NextURL
	}

	result.StopReason = models.StopLastPage
	return result, nil
}

func (s *Scraper) scrapePage(logger *slog.Logger, pageURL string, result *models.ScraperResult, sink Sink) (*parser.Listing, error) {
	result.RequestCount++
	page, err := s.fetch(pageURL)
	if err != nil {
		return nil, err
	}
	result.PageCount++
	s.Metrics.IncPages()

	listing, err := parser.ParseListing(bytes.NewReader(page.body), page.url)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", pageURL, err)
	}

	for _, skipped := range listing.Skipped {
		result.SkippedCount++
		result.SkippedByField[skipped.Field]++
		s.Metrics.IncSkipped(skipped.Field)
		logger.Warn("skipping item",
			slog.String("url", pageURL),
			slog.Int("item", skipped.Item),
			slog.String("field", skipped.Field),
			slog.String("value", skipped.Value),
			slog.Any("error", skipped.Err),
		)
	}

	if err := sink.Process(listing.Books...); err != nil {
		return nil, fmt.Errorf("store books from %s: %w", pageURL, err)
	}
	result.ItemCount += len(listing.Books)
	s.Metrics.AddItems(len(listing.Books))

	logger.Info("page scraped",
		slog.Int("page", result.PageCount),
		slog.String("url", pageURL),
		slog.Int("books", len(listing.Books)),
		slog.Int("skipped", len(listing.Skipped)),
	)
	return listing, nil
}

// fetch visits pageURL and returns the captured response body.
func (s *Scraper) fetch(pageURL string) (*pageFetch, error) {
	page := &pageFetch{}
	s.current = page
	defer func() { s.current = nil }()

	if err := s.collector.Visit(pageURL); err != nil {
		if errors.Is(err, colly.ErrAlreadyVisited) {
			return nil, err
		}
		cause := page.err
		if cause == nil {
			cause = err
		}
		return nil, FetchError{URL: pageURL, StatusCode: page.status, Err: cause}
	}
	if !page.received {
		return nil, FetchError{URL: pageURL, Err: errors.New("no response received")}
	}
	return page, nil
}

func (s *Scraper) configureHandlers() {
	s.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		s.Metrics.IncRequest("started")
		slog.Debug("fetching page", slog.String("url", r.URL.String()))
	})

	s.collector.OnResponse(func(r *colly.Response) {
		s.observeDuration(r)
		s.Metrics.IncRequest("completed")
		if s.current == nil {
			return
		}
		s.current.received = true
		s.current.body = r.Body
		s.current.url = r.Request.URL
		s.current.status = r.StatusCode
	})

	s.collector.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
			s.observeDuration(r)
		}
		classified := classifyError(err, statusCode)
		category := errorTypeLabel(classified)
		s.errorsByType[category]++
		s.Metrics.IncRequest("failed")
		s.Metrics.IncError(category)

		requestURL := ""
		if r != nil && r.Request != nil && r.Request.URL != nil {
			requestURL = r.Request.URL.String()
		}
		slog.Error("request error",
			slog.String("url", requestURL),
			slog.Int("status", statusCode),
			slog.String("category", category),
			slog.Any("error", err),
		)

		if s.current != nil {
			s.current.status = statusCode
			s.current.err = classified
		}
	})
}

func (s *Scraper) observeDuration(r *colly.Response) {
	if r.Request == nil || r.Request.Ctx == nil {
		return
	}
	if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
		s.Metrics.ObserveDuration(time.Since(start))
	}
}

func (s *Scraper) snapshotErrors() map[string]int {
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}
