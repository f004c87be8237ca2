package loader

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// NullSentinel is source text that means "no value" in numeric columns.
const NullSentinel = "Undrafted"

// ErrArity is returned when a classified row does not match the table's column count.
var ErrArity = errors.New("column count mismatch")

// ErrColumnOrder is returned when CSV header fields do not line up with the table's columns.
var ErrColumnOrder = errors.New("column order mismatch")

// Rules selects how each CSV column is classified.
type Rules struct {
	text map[string]struct{}
	drop map[string]struct{}
}

// NewRules builds Rules from the text (passed through) and drop (omitted) column names.
func NewRules(text, drop []string) Rules {
	r := Rules{
		text: make(map[string]struct{}, len(text)),
		drop: make(map[string]struct{}, len(drop)),
	}
	for _, name := range text {
		r.text[name] = struct{}{}
	}
	for _, name := range drop {
		r.drop[name] = struct{}{}
	}
	return r
}

// IsText reports whether the column is passed through unchanged.
func (r Rules) IsText(name string) bool {
	_, ok := r.text[name]
	return ok
}

// IsDropped reports whether the column is omitted.
func (r Rules) IsDropped(name string) bool {
	_, ok := r.drop[name]
	return ok
}

// ParseError describes a numeric cell that could not be parsed.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: column %q: cannot parse %q as number: %v", e.Line, e.Column, e.Value, e.Err)
	}
	return fmt.Sprintf("column %q: cannot parse %q as number: %v", e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Classify converts one CSV record into typed values in header order.
// Text columns stay strings, empty or sentinel numeric cells become nil,
// everything else must parse as a float64.
func Classify(header, record []string, rules Rules) ([]any, error) {
	if len(header) != len(record) {
		return nil, fmt.Errorf("%w: header has %d fields, record has %d", ErrArity, len(header), len(record))
	}

	values := make([]any, 0, len(record))
	for i, name := range header {
		raw := record[i]
		switch {
		case rules.IsDropped(name):
			continue
		case rules.IsText(name):
			values = append(values, raw)
		case raw == "" || raw == NullSentinel:
			values = append(values, nil)
		default:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, &ParseError{Column: name, Value: raw, Err: err}
			}
			values = append(values, f)
		}
	}

	return values, nil
}

// InsertAt returns values with v placed at index, shifting the tail right.
func InsertAt(values []any, index int, v any) []any {
	if index >= len(values) {
		return append(values, v)
	}
	values = append(values, nil)
	copy(values[index+1:], values[index:])
	values[index] = v
	return values
}

// CheckHeader verifies that the kept fields of header, with the season
// added for seasonal tables, name the table's columns in declared order.
func (t TableSpec) CheckHeader(header []string) error {
	cols := make([]string, 0, len(t.Columns))
	for _, field := range header {
		if t.Rules.IsDropped(field) {
			continue
		}
		cols = append(cols, t.ColumnFor(field))
	}

	if t.Seasonal {
		if len(cols) < SeasonOffset {
			return fmt.Errorf("%w: %d fields before season offset in %s", ErrArity, len(cols), t.Name)
		}
		cols = slices.Insert(cols, SeasonOffset, "season")
	}

	if len(cols) != len(t.Columns) {
		return fmt.Errorf("%w: %s expects %d columns, header has %d", ErrArity, t.Name, len(t.Columns), len(cols))
	}
	for i, col := range cols {
		if col != t.Columns[i] {
			return fmt.Errorf("%w: %s column %d is %q, header has %q", ErrColumnOrder, t.Name, i, t.Columns[i], col)
		}
	}
	return nil
}

// ClassifyRow runs Classify for a table, adds the season for seasonal
// tables and checks the result against the declared columns.
func ClassifyRow(spec TableSpec, season int, header, record []string) ([]any, error) {
	if err := spec.CheckHeader(header); err != nil {
		return nil, err
	}

	values, err := Classify(header, record, spec.Rules)
	if err != nil {
		return nil, err
	}

	if spec.Seasonal {
		if len(values) < SeasonOffset {
			return nil, fmt.Errorf("%w: %d values before season offset in %s", ErrArity, len(values), spec.Name)
		}
		values = InsertAt(values, SeasonOffset, season)
	}

	if len(values) != len(spec.Columns) {
		return nil, fmt.Errorf("%w: %s expects %d columns, got %d", ErrArity, spec.Name, len(spec.Columns), len(values))
	}

	return values, nil
}
