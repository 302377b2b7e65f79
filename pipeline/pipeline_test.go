package pipeline

import (
	"errors"
	"strconv"
	"testing"

	"github.com/aluiziolira/books-explorer/config"
	"github.com/aluiziolira/books-explorer/models"
)

type mockWriter struct {
	batches  [][]*models.Book
	closed   bool
	writeErr error
}

func (mw *mockWriter) Write(books []*models.Book) error {
	if mw.writeErr != nil {
		return mw.writeErr
	}
	copyBatch := make([]*models.Book, len(books))
	copy(copyBatch, books)
	mw.batches = append(mw.batches, copyBatch)
	return nil
}

func (mw *mockWriter) Close() error {
	mw.closed = true
	return nil
}

func (mw *mockWriter) Validate() error {
	return nil
}

func (mw *mockWriter) all() []*models.Book {
	var out []*models.Book
	for _, batch := range mw.batches {
		out = append(out, batch...)
	}
	return out
}

func (mw *mockWriter) batchSizes() []int {
	sizes := make([]int, 0, len(mw.batches))
	for _, batch := range mw.batches {
		sizes = append(sizes, len(batch))
	}
	return sizes
}

func testBook(i int) *models.Book {
	return &models.Book{
		Title:      "Book " + strconv.Itoa(i),
		PriceGBP:   float64(i),
		InStock:    true,
		StockText:  "In stock",
		Rating:     models.RatingThree,
		ProductURL: "http://example.test/catalogue/book-" + strconv.Itoa(i) + "/index.html",
	}
}

func newTestPipeline(t *testing.T, writer OutputWriter, mutate func(*config.Config)) *Pipeline {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	p, err := NewPipeline(writer, cfg)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func TestPipelineProcessValidationAndDedup(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer, nil)

	valid := testBook(1)
	invalid := testBook(2)
	invalid.Title = ""
	duplicate := testBook(1)

	if err := p.Process(valid, invalid, duplicate, nil); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := len(writer.all()); got != 1 {
		t.Fatalf("written books = %d, want 1", got)
	}

	stats := p.Stats()
	if stats.Processed != 1 {
		t.Fatalf("processed = %d, want 1", stats.Processed)
	}
	if stats.Rejected[RejectInvalid] != 1 {
		t.Fatalf("expected one %s rejection, got %v", RejectInvalid, stats.Rejected)
	}
	if stats.Rejected[RejectDuplicate] != 1 {
		t.Fatalf("expected one %s rejection, got %v", RejectDuplicate, stats.Rejected)
	}
}

func TestPipelineDedupeDisabled(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer, func(cfg *config.Config) {
		cfg.DedupeMaxSize = 0
	})

	if err := p.Process(testBook(1), testBook(1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := len(writer.all()); got != 2 {
		t.Fatalf("written books = %d, want 2", got)
	}
}

func TestPipelineBatchFlushThreshold(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer, func(cfg *config.Config) {
		cfg.BatchSize = 20
	})

	for i := 0; i < 45; i++ {
		if err := p.Process(testBook(i)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if sizes := writer.batchSizes(); len(sizes) != 2 {
		t.Fatalf("batches before close = %v, want two full batches", sizes)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	sizes := writer.batchSizes()
	if len(sizes) != 3 || sizes[0] != 20 || sizes[1] != 20 || sizes[2] != 5 {
		t.Fatalf("batch sizes = %v, want [20 20 5]", sizes)
	}
}

func TestPipelinePreservesOrder(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer, func(cfg *config.Config) {
		cfg.BatchSize = 7
	})

	for i := 0; i < 30; i++ {
		if err := p.Process(testBook(i)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for i, book := range writer.all() {
		if book.Title != "Book "+strconv.Itoa(i) {
			t.Fatalf("position %d holds %q", i, book.Title)
		}
	}
}

func TestPipelineProcessAfterClose(t *testing.T) {
	p := newTestPipeline(t, &mockWriter{}, nil)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.Process(testBook(1)); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("expected ErrPipelineClosed, got %v", err)
	}
}

func TestPipelineWriteErrorIsSticky(t *testing.T) {
	boom := errors.New("disk full")
	writer := &mockWriter{writeErr: boom}
	p := newTestPipeline(t, writer, func(cfg *config.Config) {
		cfg.BatchSize = 1
	})

	if err := p.Process(testBook(1)); !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	if err := p.Process(testBook(2)); !errors.Is(err, boom) {
		t.Fatalf("expected sticky write error, got %v", err)
	}
	if err := p.Close(); !errors.Is(err, boom) {
		t.Fatalf("close should report write error, got %v", err)
	}
}

func TestNewPipelineRequiresWriter(t *testing.T) {
	if _, err := NewPipeline(nil, config.DefaultConfig()); err == nil {
		t.Fatalf("expected error for nil writer")
	}
}
