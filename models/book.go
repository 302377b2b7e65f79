// Package models defines data structures shared by the scraper and the explorer.
package models

import "time"

// Book is one listing entry scraped from the catalogue.
type Book struct {
	Title      string  `csv:"title" json:"title"`
	PriceGBP   float64 `csv:"price_gbp" json:"price_gbp"`
	InStock    bool    `csv:"in_stock" json:"in_stock"`
	StockText  string  `csv:"stock_text" json:"stock_text"`
	Rating     Rating  `csv:"rating" json:"rating"`
	ProductURL string  `csv:"product_url" json:"product_url"`
}

// Stop reasons reported in ScraperResult.StopReason.
const (
	StopLastPage    = "last_page"
	StopPageCap     = "page_cap"
	StopInterrupted = "interrupted"
	StopRevisit     = "revisit"
)

// ScraperResult holds the overall result of a scraping run.
type ScraperResult struct {
	RunID          string
	StartTime      time.Time
	EndTime        time.Time
	PageCount      int
	RequestCount   int
	ItemCount      int
	SkippedCount   int
	SkippedByField map[string]int
	ErrorsByType   map[string]int
	StopReason     string
}
