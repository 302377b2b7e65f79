package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/aluiziolira/books-explorer/models"
)

// ErrMissingColumn is wrapped by FileError when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// FileError reports a books file that could not be loaded.
type FileError struct {
	Path string
	Line int
	Err  error
}

func (e FileError) Error() string {
	path := e.Path
	if path == "" {
		path = "books csv"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// LoadCSV reads every row of the books file at path.
func LoadCSV(path string) ([]models.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, FileError{Path: path, Err: err}
	}
	defer f.Close()

	books, err := ReadCSV(f)
	if err != nil {
		var fileErr FileError
		if errors.As(err, &fileErr) {
			fileErr.Path = path
			return nil, fileErr
		}
		return nil, FileError{Path: path, Err: err}
	}
	return books, nil
}

// ReadCSV decodes books in file order. Columns are matched by header name,
// so their order does not matter and extra columns are ignored.
func ReadCSV(r io.Reader) ([]models.Book, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, FileError{Line: 1, Err: fmt.Errorf("no header row: %w", ErrMissingColumn)}
	}
	if err != nil {
		return nil, csvError(err)
	}

	columns, err := indexColumns(header)
	if err != nil {
		return nil, FileError{Line: 1, Err: err}
	}

	var books []models.Book
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := reader.FieldPos(0)

		book, err := decodeRecord(record, columns)
		if err != nil {
			return nil, FileError{Line: line, Err: err}
		}
		books = append(books, book)
	}
	return books, nil
}

func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var missing []string
	for _, name := range CSVHeader {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return columns, nil
}

func decodeRecord(record []string, columns map[string]int) (models.Book, error) {
	field := func(name string) (string, error) {
		i := columns[name]
		if i >= len(record) {
			return "", fmt.Errorf("row has %d fields, column %s is at %d", len(record), name, i+1)
		}
		return strings.TrimSpace(record[i]), nil
	}

	values := make(map[string]string, len(CSVHeader))
	for _, name := range CSVHeader {
		v, err := field(name)
		if err != nil {
			return models.Book{}, err
		}
		values[name] = v
	}

	price, err := strconv.ParseFloat(values["price_gbp"], 64)
	if err != nil {
		return models.Book{}, fmt.Errorf("price_gbp %q: %w", values["price_gbp"], err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return models.Book{}, fmt.Errorf("price_gbp %q out of range", values["price_gbp"])
	}

	return models.Book{
		Title:      values["title"],
		PriceGBP:   price,
		InStock:    parseBool(values["in_stock"]),
		StockText:  values["stock_text"],
		Rating:     models.ParseRating(values["rating"]),
		ProductURL: values["product_url"],
	}, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func csvError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return FileError{Line: parseErr.Line, Err: err}
	}
	return FileError{Err: err}
}
