package pipeline

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/books-explorer/config"
	"github.com/aluiziolira/books-explorer/models"
	"github.com/aluiziolira/books-explorer/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// Rejection reasons counted in Stats.Rejected.
const (
	RejectInvalid   = "invalid_record"
	RejectDuplicate = "duplicate_url"
)

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(books []*models.Book) error
	Close() error
	Validate() error
}

// Stats is a snapshot of pipeline counters.
type Stats struct {
	Processed int
	Rejected  map[string]int
}

// Pipeline validates, de-duplicates and batches records on the caller's
// goroutine, so records reach the writer in the order they were submitted.
// It is not safe for concurrent use.
type Pipeline struct {
	writer    OutputWriter
	batch     []*models.Book
	batchSize int
	seen      *lru.Cache[string, struct{}]

	processed int
	rejected  map[string]int

	closed bool
	err    error
}

// NewPipeline builds a pipeline writing to writer with sizes taken from cfg.
func NewPipeline(writer OutputWriter, cfg *config.Config) (*Pipeline, error) {
	if writer == nil {
		return nil, fmt.Errorf("pipeline: writer is required")
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	p := &Pipeline{
		writer:    writer,
		batch:     make([]*models.Book, 0, batchSize),
		batchSize: batchSize,
		rejected:  make(map[string]int),
	}
	if cfg.DedupeMaxSize > 0 {
		seen, err := lru.New[string, struct{}](cfg.DedupeMaxSize)
		if err != nil {
			return nil, fmt.Errorf("create dedupe cache: %w", err)
		}
		p.seen = seen
	}
	return p, nil
}

// Process accepts books for output. Invalid and duplicate records are counted
// and dropped; the rest are written once a batch fills up.
func (p *Pipeline) Process(books ...*models.Book) error {
	if p.err != nil {
		return p.err
	}
	if p.closed {
		return ErrPipelineClosed
	}

	for _, book := range books {
		if book == nil {
			continue
		}
		if !p.accept(book) {
			continue
		}
		p.batch = append(p.batch, book)
		if len(p.batch) >= p.batchSize {
			if err := p.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close writes any pending batch and rejects further submissions.
// It does not close the underlying writer.
func (p *Pipeline) Close() error {
	if p.closed {
		return p.err
	}
	p.closed = true
	if p.err != nil {
		return p.err
	}
	return p.flush()
}

// Err returns the first error encountered while writing.
func (p *Pipeline) Err() error {
	return p.err
}

// Stats returns a copy of the counters.
func (p *Pipeline) Stats() Stats {
	rejected := make(map[string]int, len(p.rejected))
	for k, v := range p.rejected {
		rejected[k] = v
	}
	return Stats{Processed: p.processed, Rejected: rejected}
}

func (p *Pipeline) accept(book *models.Book) bool {
	if err := parser.ValidateBook(book); err != nil {
		p.rejected[RejectInvalid]++
		return false
	}

	if p.seen != nil {
		if p.seen.Contains(book.ProductURL) {
			p.rejected[RejectDuplicate]++
			return false
		}
		p.seen.Add(book.ProductURL, struct{}{})
	}

	p.processed++
	return true
}

func (p *Pipeline) flush() error {
	if len(p.batch) == 0 {
		return nil
	}
	if err := p.writer.Write(p.batch); err != nil {
		p.err = fmt.Errorf("write batch: %w", err)
		p.closed = true
		return p.err
	}
	p.batch = p.batch[:0]
	return nil
}
