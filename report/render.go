package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/aluiziolira/books-explorer/models"
)

const titleWidth = 60

// RenderBooks prints up to limit numbered rows, each followed by the product URL.
// Rows past limit are summarised in a trailing line.
func RenderBooks(w io.Writer, books []models.Book, limit int) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books to show.")
		return
	}
	shown := head(books, limit)
	for i, book := range shown {
		fmt.Fprintf(w, "%2d. %s | £%8s | %-7s | %s\n", i+1, fitTitle(book.Title), FormatPrice(book.PriceGBP), book.Rating, stockFlag(book.InStock))
		fmt.Fprintf(w, "    %s\n", book.ProductURL)
	}
	if rest := len(books) - len(shown); rest > 0 {
		fmt.Fprintf(w, "... and %s more\n", humanize.Comma(int64(rest)))
	}
}

// RenderDistribution prints one line per rating with its share of the total.
func RenderDistribution(w io.Writer, counts []RatingCount) {
	total := 0
	for _, rc := range counts {
		total += rc.Count
	}
	for _, rc := range counts {
		share := 0.0
		if total > 0 {
			share = float64(rc.Count) / float64(total) * 100
		}
		fmt.Fprintf(w, "%-8s: %6s  (%5.1f%%)\n", rc.Rating, humanize.Comma(int64(rc.Count)), share)
	}
}

// RenderStock prints the availability summary.
func RenderStock(w io.Writer, summary StockSummary) {
	fmt.Fprintf(w, "Total books      : %s\n", humanize.Comma(int64(summary.Total)))
	fmt.Fprintf(w, "In stock         : %s\n", humanize.Comma(int64(summary.InStock)))
	fmt.Fprintf(w, "Out of stock     : %s\n", humanize.Comma(int64(summary.OutOfStock)))
}

// FormatPrice renders a price with thousands separators and two decimals.
func FormatPrice(price float64) string {
	return humanize.FormatFloat("#,###.##", price)
}

// fitTitle pads or truncates by display width, so wide runes keep the columns aligned.
func fitTitle(title string) string {
	return runewidth.FillRight(runewidth.Truncate(title, titleWidth, ""), titleWidth)
}

func stockFlag(inStock bool) string {
	if inStock {
		return "[Y]"
	}
	return "[N]"
}
