package loader

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options configures a Loader.
type Options struct {
	// RefreshSnapshots overwrites rows of snapshot tables whose key already
	// exists instead of skipping them.
	RefreshSnapshots bool
	Logger           *log.Logger
	Reporter         Reporter
}

// FileResult summarizes the load of one manifest entry.
type FileResult struct {
	Entry      Entry         `json:"entry"`
	Records    int           `json:"records"`
	Inserted   int           `json:"inserted"`
	Updated    int           `json:"updated"`
	Existing   int           `json:"existing"`
	Duplicates int           `json:"duplicates"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
}

// FileFailure records an entry whose load was aborted.
type FileFailure struct {
	Entry Entry `json:"entry"`
	Err   error `json:"-"`
}

// RunSummary is returned by Run.
type RunSummary struct {
	TeamsSeeded int           `json:"teams_seeded"`
	Loaded      []FileResult  `json:"loaded"`
	Failed      []FileFailure `json:"failed,omitempty"`
}

// Inserted totals the inserted rows across loaded files.
func (s *RunSummary) Inserted() int {
	total := 0
	for _, r := range s.Loaded {
		total += r.Inserted
	}
	return total
}

// Updated totals the refreshed rows across loaded files.
func (s *RunSummary) Updated() int {
	total := 0
	for _, r := range s.Loaded {
		total += r.Updated
	}
	return total
}

// Loader moves scraped CSV files into the warehouse, inserting only rows
// whose identity key is not stored yet.
type Loader struct {
	db       *sql.DB
	inserter *BatchInserter
	opts     Options
	logger   *log.Logger
}

// New constructs a Loader over an open database handle.
func New(db *sql.DB, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[loader] ", log.LstdFlags)
	}
	return &Loader{
		db:       db,
		inserter: NewBatchInserter(db, logger),
		opts:     opts,
		logger:   logger,
	}
}

// Run seeds the team list and then loads every manifest entry in order.
// A failing entry is logged and reported; the run moves on to the next one.
// Run only returns an error when the team seed fails or ctx is cancelled.
func (l *Loader) Run(ctx context.Context, manifest Manifest) (*RunSummary, error) {
	reporter := l.opts.Reporter
	if reporter != nil {
		reporter.OnRunStart(manifest)
	}

	summary := &RunSummary{}

	seeded, err := l.SeedTeams(ctx)
	if err != nil {
		if reporter != nil {
			reporter.OnRunError(err)
		}
		return summary, err
	}
	summary.TeamsSeeded = seeded

	total := len(manifest)
	for idx, entry := range manifest {
		if err := ctx.Err(); err != nil {
			if reporter != nil {
				reporter.OnRunError(err)
			}
			return summary, err
		}

		if reporter != nil {
			reporter.OnFileStart(entry, idx, total)
		}

		result, err := l.LoadFile(ctx, entry)
		if err != nil {
			l.logger.Printf("✗ Failed to load %s into %s: %v", filepath.Base(entry.Path), entry.Table, err)
			summary.Failed = append(summary.Failed, FileFailure{Entry: entry, Err: err})
			if reporter != nil {
				reporter.OnFileError(entry, err)
			}
			continue
		}

		l.logger.Printf("Data for %s inserted successfully", filepath.Base(entry.Path))
		summary.Loaded = append(summary.Loaded, result)
		if reporter != nil {
			reporter.OnFileLoaded(result)
		}
	}

	if reporter != nil {
		reporter.OnRunComplete(summary)
	}

	return summary, nil
}

// LoadFile runs one entry through classify, filter and insert.
func (l *Loader) LoadFile(ctx context.Context, entry Entry) (FileResult, error) {
	started := time.Now()
	result := FileResult{Entry: entry}

	spec, err := Lookup(entry.Table)
	if err != nil {
		return result, err
	}
	keyIdx, err := spec.KeyIndexes()
	if err != nil {
		return result, err
	}

	f, err := os.Open(entry.Path)
	if err != nil {
		return result, fmt.Errorf("opening %s: %w", entry.Path, err)
	}
	defer f.Close()

	candidates, err := l.classifyFile(entry, spec, f, &result)
	if err != nil {
		return result, err
	}
	l.logger.Printf("Finished reading %s (%d records)", filepath.Base(entry.Path), result.Records)

	existing, err := FetchExisting(ctx, l.db, spec.Name, spec.KeyColumns)
	if err != nil {
		return result, err
	}

	refresh := l.opts.RefreshSnapshots && spec.Snapshot
	seen := make(KeySet, len(candidates))
	var inserts, updates [][]any
	for _, row := range candidates {
		key := tupleAt(row, keyIdx)
		if seen.Has(key...) {
			result.Duplicates++
			continue
		}
		seen.Add(key...)

		if existing.Has(key...) {
			result.Existing++
			if refresh {
				updates = append(updates, row)
			}
			continue
		}
		inserts = append(inserts, row)
	}

	if refresh {
		if _, err := l.inserter.Upsert(ctx, spec.Name, spec.Columns, spec.KeyColumns, append(inserts, updates...)); err != nil {
			return result, err
		}
		result.Updated = len(updates)
	} else {
		if _, err := l.inserter.Insert(ctx, spec.Name, spec.Columns, inserts); err != nil {
			return result, err
		}
	}
	result.Inserted = len(inserts)
	result.Duration = time.Since(started)

	return result, nil
}

// classifyFile reads a header-keyed CSV and classifies every record.
// Records that fail classification are logged, reported and skipped.
func (l *Loader) classifyFile(entry Entry, spec TableSpec, r io.Reader, result *FileResult) ([][]any, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", entry.Path, err)
	}
	header[0] = trimBOM(header[0])
	if err := spec.CheckHeader(header); err != nil {
		return nil, fmt.Errorf("header of %s: %w", entry.Path, err)
	}
	// records with a different field count are skipped individually below
	reader.FieldsPerRecord = -1

	var rows [][]any
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Path, err)
		}
		result.Records++
		line, _ := reader.FieldPos(0)

		values, err := ClassifyRow(spec, entry.Season, header, record)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.Line = line
			} else {
				err = fmt.Errorf("line %d: %w", line, err)
			}
			result.Skipped++
			l.logger.Printf("  ⊘ Skipping record in %s: %v", filepath.Base(entry.Path), err)
			if l.opts.Reporter != nil {
				l.opts.Reporter.OnRecordSkipped(entry, err)
			}
			continue
		}
		rows = append(rows, values)
	}

	return rows, nil
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
