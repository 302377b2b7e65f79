package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/aluiziolira/books-explorer/config"
	"github.com/aluiziolira/books-explorer/models"
)

const menuBanner = "==================== BOOKS EXPLORER ===================="

type option struct {
	key   string
	label string
	run   func()
}

// Menu is the interactive explorer loop over a fixed book list.
type Menu struct {
	books   []models.Book
	cfg     *config.ExplorerConfig
	in      *bufio.Scanner
	out     io.Writer
	options []option
}

// NewMenu builds a menu reading choices from in and printing to out.
// books is not modified.
func NewMenu(books []models.Book, cfg *config.ExplorerConfig, in io.Reader, out io.Writer) *Menu {
	if cfg == nil {
		cfg = config.DefaultExplorerConfig()
	}
	m := &Menu{
		books: books,
		cfg:   cfg,
		in:    bufio.NewScanner(in),
		out:   out,
	}
	m.options = []option{
		{key: "1", label: fmt.Sprintf("Show %d cheapest books", cfg.TopN), run: m.showCheapest},
		{key: "2", label: fmt.Sprintf("Show %d most expensive books", cfg.TopN), run: m.showMostExpensive},
		{key: "3", label: "Show rating distribution", run: m.showRatings},
		{key: "4", label: "Show stock summary", run: m.showStock},
		{key: "5", label: "Show books with minimum rating", run: m.showMinRating},
	}
	return m
}

// Run loops until the user quits or input ends. It only fails on a read error.
func (m *Menu) Run() error {
	for {
		m.printMenu()
		choice, ok := m.prompt("Select an option: ")
		if !ok {
			fmt.Fprintln(m.out)
			break
		}
		choice = strings.ToLower(choice)
		if choice == "q" {
			break
		}
		if opt, found := m.lookup(choice); found {
			opt.run()
			continue
		}
		fmt.Fprintln(m.out, "Invalid choice. Please try again.")
	}
	fmt.Fprintln(m.out, "Goodbye.")
	return m.in.Err()
}

func (m *Menu) lookup(key string) (option, bool) {
	for _, opt := range m.options {
		if opt.key == key {
			return opt, true
		}
	}
	return option{}, false
}

func (m *Menu) printMenu() {
	fmt.Fprintf(m.out, "\n%s\n", menuBanner)
	for _, opt := range m.options {
		fmt.Fprintf(m.out, "%s) %s\n", opt.key, opt.label)
	}
	fmt.Fprintln(m.out, "q) Quit")
}

// prompt returns the next trimmed input line; false means input ended.
func (m *Menu) prompt(text string) (string, bool) {
	fmt.Fprint(m.out, text)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *Menu) showCheapest() {
	fmt.Fprintln(m.out, "\n=== Cheapest Books ===")
	RenderBooks(m.out, Cheapest(m.books, m.cfg.TopN), m.cfg.TopN)
}

func (m *Menu) showMostExpensive() {
	fmt.Fprintln(m.out, "\n=== Most Expensive Books ===")
	RenderBooks(m.out, MostExpensive(m.books, m.cfg.TopN), m.cfg.TopN)
}

func (m *Menu) showRatings() {
	fmt.Fprintln(m.out, "\n=== Rating Distribution ===")
	RenderDistribution(m.out, RatingDistribution(m.books))
}

func (m *Menu) showStock() {
	fmt.Fprintln(m.out, "\n=== Stock Summary ===")
	RenderStock(m.out, Stock(m.books))
}

func (m *Menu) showMinRating() {
	fmt.Fprintln(m.out, "\nAvailable ratings: One, Two, Three, Four, Five")
	input, ok := m.prompt("Enter minimum rating (e.g. Three, Four, Five): ")
	if !ok || input == "" {
		fmt.Fprintln(m.out, "No rating entered. Returning to menu.")
		return
	}
	threshold, known := models.LookupRating(input)
	if !known {
		fmt.Fprintf(m.out, "Unknown rating: %s\n", input)
		return
	}

	filtered := FilterMinRating(m.books, threshold)
	fmt.Fprintf(m.out, "\n=== Books with rating >= %s (%d found) ===\n", threshold, len(filtered))
	RenderBooks(m.out, filtered, m.cfg.FilterLimit)
}
