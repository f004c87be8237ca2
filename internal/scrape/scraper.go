package scrape

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fortuna/hoopsdb/internal/loader"
)

const (
	PlayersFile     = "players_id.csv"
	PlayersInfoFile = "players_info.csv"
)

// PlayersInfoHeader matches the players_info table column order.
var PlayersInfoHeader = []string{
	"player_id", "team", "age", "height", "weight",
	"college", "country", "draft_year", "draft_round", "draft_number",
}

// BioSource provides the player bio rows of a season.
type BioSource interface {
	FetchBios(ctx context.Context, season int) ([]BioRow, error)
}

// Options configures a Scraper.
type Options struct {
	StatsBaseURL string
	OutDir       string
	// Bios is optional; without it players_info.csv is not produced.
	Bios   BioSource
	Logger *log.Logger
}

// Summary lists what a scrape produced.
type Summary struct {
	Files  []string
	Failed []error
}

// Scraper exports season stats and player details as CSV files the loader
// picks up by name.
type Scraper struct {
	client *Client
	opts   Options
	logger *log.Logger
}

// NewScraper constructs a Scraper.
func NewScraper(client *Client, opts Options) *Scraper {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[scrape] ", log.LstdFlags)
	}
	return &Scraper{client: client, opts: opts, logger: logger}
}

// Run scrapes every stats page for each season in [yearStart, yearEnd], then
// the player id list and, when a bio source is set, player details. A page
// that fails is logged and skipped.
func (s *Scraper) Run(ctx context.Context, yearStart, yearEnd int) (*Summary, error) {
	if yearStart > yearEnd {
		return nil, fmt.Errorf("invalid season range %d-%d", yearStart, yearEnd)
	}
	if err := os.MkdirAll(s.opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	summary := &Summary{}
	idsBySeason := map[int][]PlayerID{}

	for _, page := range StatPages {
		for year := yearStart; year <= yearEnd; year++ {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			s.logger.Printf("Starting web scraping for NBA players %s year %d", page.Name, year)
			table, err := s.client.FetchStats(ctx, s.opts.StatsBaseURL, year, page)
			if err != nil {
				s.logger.Printf("✗ %s %d: %v", page.Name, year, err)
				summary.Failed = append(summary.Failed, err)
				continue
			}

			path := filepath.Join(s.opts.OutDir, loader.StatsFileName(year, page.Suffix))
			if err := WriteCSV(path, table.Header, table.Rows); err != nil {
				summary.Failed = append(summary.Failed, err)
				continue
			}
			summary.Files = append(summary.Files, path)
			s.logger.Printf("✓ Exported %s (%d players)", filepath.Base(path), len(table.Rows))

			if page.Suffix == StatPages[0].Suffix {
				idsBySeason[year] = PlayerIDs(table)
			}
		}
	}

	players := newRegistry()
	for year := yearStart; year <= yearEnd; year++ {
		for _, id := range idsBySeason[year] {
			players.put(id.ID, []string{id.ID, id.Name})
		}
	}
	if players.len() > 0 {
		path := filepath.Join(s.opts.OutDir, PlayersFile)
		if err := WriteCSV(path, []string{"player_id", "player"}, players.rows()); err != nil {
			return summary, err
		}
		summary.Files = append(summary.Files, path)
	}

	if s.opts.Bios == nil {
		return summary, nil
	}

	info := newRegistry()
	for year := yearStart; year <= yearEnd; year++ {
		ids, ok := idsBySeason[year]
		if !ok {
			continue
		}
		bios, err := s.opts.Bios.FetchBios(ctx, year)
		if err != nil {
			s.logger.Printf("✗ player bios %d: %v", year, err)
			summary.Failed = append(summary.Failed, err)
			continue
		}
		for _, row := range JoinBios(bios, ids) {
			info.put(row[0], row)
		}
	}
	if info.len() > 0 {
		path := filepath.Join(s.opts.OutDir, PlayersInfoFile)
		if err := WriteCSV(path, PlayersInfoHeader, info.rows()); err != nil {
			return summary, err
		}
		summary.Files = append(summary.Files, path)
	}

	return summary, nil
}

// Err joins the page failures of a scrape, or nil.
func (s *Summary) Err() error {
	return errors.Join(s.Failed...)
}

// WriteCSV writes header and rows to path, replacing any existing file.
func WriteCSV(path string, header []string, rows [][]string) error {
	if len(rows) == 0 {
		return fmt.Errorf("writing %s: no rows", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// registry keeps one row per player id; a later put replaces the row but
// keeps the first-seen position.
type registry struct {
	order []string
	byID  map[string][]string
}

func newRegistry() *registry {
	return &registry{byID: map[string][]string{}}
}

func (r *registry) put(id string, row []string) {
	if _, ok := r.byID[id]; !ok {
		r.order = append(r.order, id)
	}
	r.byID[id] = row
}

func (r *registry) len() int { return len(r.order) }

func (r *registry) rows() [][]string {
	rows := make([][]string, len(r.order))
	for i, id := range r.order {
		rows[i] = r.byID[id]
	}
	return rows
}
