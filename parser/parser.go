// Package parser turns catalogue listing HTML into book records. It performs no I/O.
package parser

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/aluiziolira/books-explorer/models"
)

// ErrEmptyField is wrapped by ParseError when a required element or attribute is absent.
var ErrEmptyField = errors.New("empty field")

// ParseError reports a single item field that could not be extracted.
type ParseError struct {
	Item  int
	Field string
	Value string
	Err   error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("item %d: %s %q: %v", e.Item, e.Field, e.Value, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// ValidateBook ensures a record satisfies the output invariants.
func ValidateBook(b *models.Book) error {
	if b == nil {
		return fmt.Errorf("book is nil")
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("book missing title")
	}
	if math.IsNaN(b.PriceGBP) || math.IsInf(b.PriceGBP, 0) || b.PriceGBP < 0 {
		return fmt.Errorf("book %s has invalid price %v", b.Title, b.PriceGBP)
	}
	if b.Rating < models.RatingUnknown || b.Rating > models.RatingFive {
		return fmt.Errorf("book %s has invalid rating %d", b.Title, int(b.Rating))
	}
	u, err := url.Parse(b.ProductURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("book %s has non-absolute product url %q", b.Title, b.ProductURL)
	}
	return nil
}

// ParsePrice strips a leading currency symbol such as "£" and parses the rest
// as a non-negative decimal.
func ParsePrice(text string) (float64, error) {
	raw := strings.TrimSpace(text)
	cleaned := strings.TrimLeftFunc(raw, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.' && r != '-' && r != '+'
	})
	cleaned = strings.ReplaceAll(strings.TrimSpace(cleaned), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("no amount in %q: %w", raw, ErrEmptyField)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", cleaned, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, fmt.Errorf("amount %q out of range", cleaned)
	}
	return value, nil
}

// NormalizeAvailability collapses the whitespace around and inside the label.
func NormalizeAvailability(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ParseAvailability returns the normalised label and whether it means the book can be bought.
func ParseAvailability(text string) (string, bool) {
	label := NormalizeAvailability(text)
	lower := strings.ToLower(label)
	if strings.Contains(lower, "out of stock") {
		return label, false
	}
	return label, strings.Contains(lower, "in stock")
}

// RatingFromClass picks the rating word out of a class list like "star-rating Three".
func RatingFromClass(class string) models.Rating {
	for _, token := range strings.Fields(class) {
		if token == "star-rating" {
			continue
		}
		return models.ParseRating(token)
	}
	return models.RatingUnknown
}

// ResolveURL makes href absolute against the page it was found on.
func ResolveURL(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", ErrEmptyField
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href: %w", err)
	}
	abs := base.ResolveReference(ref)
	if !abs.IsAbs() || abs.Host == "" {
		return "", fmt.Errorf("resolved url %q is not absolute", abs.String())
	}
	return abs.String(), nil
}
