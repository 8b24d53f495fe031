// Package dataset holds the in-memory tabular form of an ingested file and
// the column-selection operations that turn it into numeric samples.
package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"hypotest/internal/errors"
)

// Row maps column header to raw cell text
type Row map[string]string

// Table is a parsed delimited or spreadsheet file
type Table struct {
	Source  string
	Headers []string
	Rows    []Row
}

// ValueCount is the number of rows holding one distinct value
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// MissingCount reports missing cells in one column
type MissingCount struct {
	Column  string  `json:"column"`
	Missing int     `json:"missing"`
	Percent float64 `json:"percent"`
}

// missingTokens are cell values treated as absent (compared lower-cased)
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// IsMissing reports whether a raw cell counts as missing
func IsMissing(cell string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(cell))]
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the header row contains name
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

func (t *Table) requireColumn(name string) error {
	if !t.HasColumn(name) {
		return errors.InvalidInput("unknown column " + strconv.Quote(name) + " in " + t.Source)
	}
	return nil
}

// Column returns the raw cells of one column in row order
func (t *Table) Column(name string) ([]string, error) {
	if err := t.requireColumn(name); err != nil {
		return nil, err
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[name]
	}
	return values, nil
}

// NumericColumn parses every usable cell of a column as float64.
// Missing, unparsable and non-finite cells are skipped and counted.
func (t *Table) NumericColumn(name string) (values []float64, skipped int, err error) {
	if err := t.requireColumn(name); err != nil {
		return nil, 0, err
	}
	for _, row := range t.Rows {
		v, ok := parseNumeric(row[name])
		if !ok {
			skipped++
			continue
		}
		values = append(values, v)
	}
	return values, skipped, nil
}

// NumericWhere selects rows where groupColumn equals groupValue and returns
// valueColumn as a numeric sample. Rows whose value cell is missing,
// unparsable or non-finite are skipped and counted.
func (t *Table) NumericWhere(groupColumn, groupValue, valueColumn string) (values []float64, skipped int, err error) {
	if err := t.requireColumn(groupColumn); err != nil {
		return nil, 0, err
	}
	if err := t.requireColumn(valueColumn); err != nil {
		return nil, 0, err
	}

	for _, row := range t.Rows {
		if row[groupColumn] != groupValue {
			continue
		}
		v, ok := parseNumeric(row[valueColumn])
		if !ok {
			skipped++
			continue
		}
		values = append(values, v)
	}
	return values, skipped, nil
}

// ValueCounts counts distinct values of a column, most frequent first.
// Ties are ordered by value so the output is stable.
func (t *Table) ValueCounts(column string) ([]ValueCount, error) {
	if err := t.requireColumn(column); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, row := range t.Rows {
		counts[row[column]]++
	}

	result := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		result = append(result, ValueCount{Value: v, Count: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Value < result[j].Value
	})
	return result, nil
}

// TopN returns the n rows with the largest numeric value in sortColumn,
// largest first. Rows whose cell is missing, unparsable or non-finite are
// left out; equal values keep their file order.
func (t *Table) TopN(sortColumn string, n int) ([]Row, error) {
	if err := t.requireColumn(sortColumn); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, errors.InvalidInput("top count must be positive, got " + strconv.Itoa(n))
	}

	type ranked struct {
		row   Row
		value float64
	}
	candidates := make([]ranked, 0, len(t.Rows))
	for _, row := range t.Rows {
		if v, ok := parseNumeric(row[sortColumn]); ok {
			candidates = append(candidates, ranked{row: row, value: v})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].value > candidates[j].value
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	rows := make([]Row, len(candidates))
	for i, c := range candidates {
		rows[i] = c.row
	}
	return rows, nil
}

// MissingCounts reports missing cells per column in header order
func (t *Table) MissingCounts() []MissingCount {
	result := make([]MissingCount, 0, len(t.Headers))
	for _, h := range t.Headers {
		missing := 0
		for _, row := range t.Rows {
			cell, exists := row[h]
			if !exists || IsMissing(cell) {
				missing++
			}
		}
		pct := 0.0
		if len(t.Rows) > 0 {
			pct = 100 * float64(missing) / float64(len(t.Rows))
		}
		result = append(result, MissingCount{Column: h, Missing: missing, Percent: pct})
	}
	return result
}

func parseNumeric(cell string) (float64, bool) {
	if IsMissing(cell) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
