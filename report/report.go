// Package report answers the explorer's read-only questions about a loaded
// book list. None of the queries modify their input.
package report

import (
	"cmp"
	"slices"

	"github.com/aluiziolira/books-explorer/models"
)

// RatingCount is one row of the rating distribution.
type RatingCount struct {
	Rating models.Rating
	Count  int
}

// StockSummary counts books by availability. InStock+OutOfStock == Total.
type StockSummary struct {
	Total      int
	InStock    int
	OutOfStock int
}

// Cheapest returns up to n books in ascending price order. Equal prices keep
// their input order.
func Cheapest(books []models.Book, n int) []models.Book {
	sorted := slices.Clone(books)
	slices.SortStableFunc(sorted, func(a, b models.Book) int {
		return cmp.Compare(a.PriceGBP, b.PriceGBP)
	})
	return head(sorted, n)
}

// MostExpensive returns up to n books in descending price order. Equal prices
// keep their input order.
func MostExpensive(books []models.Book, n int) []models.Book {
	sorted := slices.Clone(books)
	slices.SortStableFunc(sorted, func(a, b models.Book) int {
		return cmp.Compare(b.PriceGBP, a.PriceGBP)
	})
	return head(sorted, n)
}

// RatingDistribution counts books per rating. Every rating is listed, in
// models.Ratings order, even when its count is zero.
func RatingDistribution(books []models.Book) []RatingCount {
	counts := make(map[models.Rating]int, len(models.Ratings))
	for _, book := range books {
		rating := book.Rating
		if !rating.Known() {
			rating = models.RatingUnknown
		}
		counts[rating]++
	}

	out := make([]RatingCount, 0, len(models.Ratings))
	for _, rating := range models.Ratings {
		out = append(out, RatingCount{Rating: rating, Count: counts[rating]})
	}
	return out
}

// Stock summarises availability.
func Stock(books []models.Book) StockSummary {
	summary := StockSummary{Total: len(books)}
	for _, book := range books {
		if book.InStock {
			summary.InStock++
		}
	}
	summary.OutOfStock = summary.Total - summary.InStock
	return summary
}

// FilterMinRating keeps books rated threshold or better, in input order. Unrated
// books never match, and an Unknown threshold matches nothing.
func FilterMinRating(books []models.Book, threshold models.Rating) []models.Book {
	if !threshold.Known() {
		return nil
	}
	var out []models.Book
	for _, book := range books {
		if book.Rating.Known() && book.Rating >= threshold {
			out = append(out, book)
		}
	}
	return out
}

func head(books []models.Book, n int) []models.Book {
	if n < 0 {
		n = 0
	}
	if len(books) > n {
		return books[:n]
	}
	return books
}
