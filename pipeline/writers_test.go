package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/books-explorer/models"
)

func sampleBook() *models.Book {
	return &models.Book{
		Title:      `Tipping the Velvet, "Part 1"`,
		PriceGBP:   53.74,
		InStock:    true,
		StockText:  "In stock",
		Rating:     models.RatingOne,
		ProductURL: "https://books.toscrape.com/catalogue/tipping-the-velvet_999/index.html",
	}
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}

	outOfStock := sampleBook()
	outOfStock.InStock = false
	outOfStock.StockText = "Out of stock"
	outOfStock.Rating = models.RatingUnknown

	if err := writer.Write([]*models.Book{sampleBook(), outOfStock}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records=%d, want 3", len(records))
	}
	if strings.Join(records[0], ",") != "title,price_gbp,in_stock,stock_text,rating,product_url" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	want := []string{`Tipping the Velvet, "Part 1"`, "53.74", "True", "In stock", "One", "https://books.toscrape.com/catalogue/tipping-the-velvet_999/index.html"}
	if strings.Join(records[1], "|") != strings.Join(want, "|") {
		t.Fatalf("row = %v, want %v", records[1], want)
	}
	if records[2][2] != "False" || records[2][4] != "Unknown" {
		t.Fatalf("row = %v", records[2])
	}
}

func TestCSVWriterValidateEmpty(t *testing.T) {
	writer, err := NewCSVWriter(filepath.Join(t.TempDir(), "nested", "books.csv"))
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	defer writer.Close()

	if err := writer.Validate(); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got %v", err)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := map[float64]string{
		51.77: "51.77",
		10:    "10",
		0.5:   "0.5",
		0:     "0",
	}
	for in, want := range tests {
		if got := FormatPrice(in); got != want {
			t.Errorf("FormatPrice(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestJSONWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}

	if err := writer.Write([]*models.Book{sampleBook()}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		var decoded models.Book
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		if decoded != *sampleBook() {
			t.Fatalf("decoded %+v", decoded)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if count != 1 {
		t.Fatalf("json lines=%d, want 1", count)
	}
}

func TestDualWriterWrite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "books.csv")
	jsonPath := filepath.Join(dir, "books.json")

	writer, err := NewDualWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}

	if err := writer.Validate(); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords before any write, got %v", err)
	}
	if err := writer.Write([]*models.Book{sampleBook()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	books, err := LoadCSV(csvPath)
	if err != nil || len(books) != 1 {
		t.Fatalf("load csv: %v (%d books)", err, len(books))
	}
	if info, err := os.Stat(jsonPath); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
}
