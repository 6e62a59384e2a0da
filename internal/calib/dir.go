// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calib

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
)

// DatExt is the file extension of plain-text calibration tables.
const DatExt = ".dat"

// RetryMaxElapsed bounds how long a read is retried on transient errors.
// Tests lower it.
var RetryMaxElapsed = 2 * time.Second

// DirSource reads tables from Dir/<name>.dat.
type DirSource struct {
	Dir string
}

// Table implements Source. A missing file yields ErrNotFound; other read
// errors (e.g. a file being replaced on a network mount) are retried with
// exponential backoff.
func (d DirSource) Table(ctx context.Context, name string) (Table, error) {
	path := filepath.Join(d.Dir, name+DatExt)

	var t Table
	op := func() error {
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return backoff.Permanent(fmt.Errorf("%s: %w", name, ErrNotFound))
			}
			return err
		}
		defer f.Close()

		parsed, err := Parse(name, f)
		if err != nil {
			return backoff.Permanent(err)
		}
		t = parsed
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = RetryMaxElapsed
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Table{}, err
		}
		return Table{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// Names lists the table names available in the directory.
func (d DirSource) Names() ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading calibration directory %s: %w", d.Dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != DatExt {
			continue
		}
		names = append(names, e.Name()[:len(e.Name())-len(DatExt)])
	}
	return names, nil
}
