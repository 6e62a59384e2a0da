// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package calib loads calibration tables: detector gap maps, quantum
// efficiency curves, optics throughputs and sky spectra. Tables are two
// numeric columns (x, y) and are treated as immutable once loaded.
//
// Two sources are provided: a directory of plain-text .dat files, and an
// SQLite database populated from such a directory by Import.
package calib

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrNotFound is returned when a named table does not exist in a source.
var ErrNotFound = errors.New("calibration table not found")

// Table holds a two-column calibration table.
type Table struct {
	Name string
	X    []float64
	Y    []float64
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.X) }

// At returns the value at x by linear interpolation between rows, or 0
// outside the table.
func (t Table) At(x float64) float64 {
	n := t.Len()
	if n == 0 || x < t.X[0] || x > t.X[n-1] {
		return 0
	}
	j := sort.SearchFloat64s(t.X, x)
	if j < n && t.X[j] == x {
		return t.Y[j]
	}
	x0, x1 := t.X[j-1], t.X[j]
	f := (x - x0) / (x1 - x0)
	return t.Y[j-1]*(1-f) + t.Y[j]*f
}

// Source provides calibration tables by name.
type Source interface {
	// Table returns the named table or an error wrapping ErrNotFound.
	Table(ctx context.Context, name string) (Table, error)
}

// Parse reads a whitespace-separated two-column table. Blank lines and lines
// starting with '#' are ignored; extra columns are ignored. X must be
// non-decreasing.
func Parse(name string, r io.Reader) (Table, error) {
	t := Table{Name: name}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return Table{}, fmt.Errorf("%s:%d: expected 2 columns, got %d", name, line, len(fields))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Table{}, fmt.Errorf("%s:%d: parsing x: %w", name, line, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Table{}, fmt.Errorf("%s:%d: parsing y: %w", name, line, err)
		}
		if n := len(t.X); n > 0 && x < t.X[n-1] {
			return Table{}, fmt.Errorf("%s:%d: x decreases (%g after %g)", name, line, x, t.X[n-1])
		}
		t.X = append(t.X, x)
		t.Y = append(t.Y, y)
	}
	if err := sc.Err(); err != nil {
		return Table{}, fmt.Errorf("reading %s: %w", name, err)
	}
	if t.Len() == 0 {
		return Table{}, fmt.Errorf("%s: table is empty", name)
	}
	return t, nil
}

// Cache memoizes tables from an underlying source. It is safe for
// concurrent use; tables are shared read-only between callers.
type Cache struct {
	src Source

	mu     sync.Mutex
	tables map[string]Table
}

// NewCache wraps src.
func NewCache(src Source) *Cache {
	return &Cache{src: src, tables: make(map[string]Table)}
}

// Table returns the cached table or loads it from the underlying source.
func (c *Cache) Table(ctx context.Context, name string) (Table, error) {
	c.mu.Lock()
	t, ok := c.tables[name]
	c.mu.Unlock()
	if ok {
		return t, nil
	}

	t, err := c.src.Table(ctx, name)
	if err != nil {
		return Table{}, err
	}

	c.mu.Lock()
	c.tables[name] = t
	c.mu.Unlock()
	return t, nil
}

// MapSource serves tables from memory. Tests and embedded defaults use it.
type MapSource map[string]Table

// Table implements Source.
func (m MapSource) Table(_ context.Context, name string) (Table, error) {
	t, ok := m[name]
	if !ok {
		return Table{}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return t, nil
}
