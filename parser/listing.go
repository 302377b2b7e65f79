package parser

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/books-explorer/models"
)

const (
	itemSelector     = "article.product_pod"
	nextPageSelector = "li.next a"
)

// Listing is the parsed content of one catalogue page.
type Listing struct {
	Books   []*models.Book
	Skipped []ParseError
	NextURL string
}

// ParseListing extracts every item container on a listing page, in page order.
// Items with an unparseable field are reported in Skipped instead of Books.
func ParseListing(r io.Reader, pageURL *url.URL) (*Listing, error) {
	if pageURL == nil {
		return nil, fmt.Errorf("page url is required")
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	listing := &Listing{}
	doc.Find(itemSelector).Each(func(i int, s *goquery.Selection) {
		book, perr := parseItem(i, s, pageURL)
		if perr != nil {
			listing.Skipped = append(listing.Skipped, *perr)
			return
		}
		listing.Books = append(listing.Books, book)
	})

	if href, ok := doc.Find(nextPageSelector).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		next, err := ResolveURL(pageURL, href)
		if err != nil {
			return nil, fmt.Errorf("next page link %q: %w", href, err)
		}
		listing.NextURL = next
	}

	return listing, nil
}

func parseItem(index int, s *goquery.Selection, pageURL *url.URL) (*models.Book, *ParseError) {
	title, err := extractTitle(s)
	if err != nil {
		return nil, &ParseError{Item: index, Field: "title", Err: err}
	}

	productURL, err := extractProductURL(s, pageURL)
	if err != nil {
		href, _ := s.Find("h3 a").First().Attr("href")
		return nil, &ParseError{Item: index, Field: "product_url", Value: href, Err: err}
	}

	priceText := strings.TrimSpace(s.Find(".price_color").First().Text())
	price, err := ParsePrice(priceText)
	if err != nil {
		return nil, &ParseError{Item: index, Field: "price_gbp", Value: priceText, Err: err}
	}

	stockText, inStock := ParseAvailability(s.Find(".availability").First().Text())
	ratingClass, _ := s.Find(".star-rating").First().Attr("class")

	return &models.Book{
		Title:      title,
		PriceGBP:   price,
		InStock:    inStock,
		StockText:  stockText,
		Rating:     RatingFromClass(ratingClass),
		ProductURL: productURL,
	}, nil
}

func extractTitle(s *goquery.Selection) (string, error) {
	link := s.Find("h3 a").First()
	if title, ok := link.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title), nil
	}
	// Long titles are truncated in the link text, so this is only a fallback.
	if text := strings.TrimSpace(link.Text()); text != "" {
		return text, nil
	}
	return "", ErrEmptyField
}

func extractProductURL(s *goquery.Selection, pageURL *url.URL) (string, error) {
	href, ok := s.Find("h3 a").First().Attr("href")
	if !ok {
		return "", ErrEmptyField
	}
	return ResolveURL(pageURL, href)
}
