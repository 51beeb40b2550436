// Package fetcher reads owner name columns from CSV and XLSX spreadsheets.
package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tidyframe/tidyframe/internal/model"
)

// DefaultColumns are the header names tried, in order, when no column is
// configured.
var DefaultColumns = []string{"name", "owner_name", "owner", "full_name", "parse_string"}

// Options configures ReadNames.
type Options struct {
	// Column is the header of the name column, matched case-insensitively.
	// Empty tries DefaultColumns.
	Column string
	// Sheet selects the worksheet of an XLSX file.
	Sheet XLSXOptions
	// Delimiter overrides the CSV delimiter. TSV files default to tab.
	Delimiter rune
	// MaxRows rejects files with more data rows. Zero means unlimited.
	MaxRows int
}

// Names is the name column of a spreadsheet.
type Names struct {
	Column string
	Header []string
	Rows   []model.RawNameInput
}

// ReadNames reads the name column of the spreadsheet at path. RowIndex is
// the zero-based data row, header excluded. Blank rows are kept so results
// line up with the source file.
func ReadNames(ctx context.Context, path string, opts Options) (*Names, error) {
	rowCh, errCh, err := open(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	out := &Names{}
	col := -1
	for row := range rowCh {
		if out.Header == nil {
			out.Header = row
			col, out.Column, err = resolveColumn(row, opts.Column)
			if err != nil {
				drain(rowCh)
				return nil, err
			}
			continue
		}
		if opts.MaxRows > 0 && len(out.Rows) >= opts.MaxRows {
			drain(rowCh)
			return nil, eris.Errorf("fetcher: %s has more than %d rows", filepath.Base(path), opts.MaxRows)
		}
		var text string
		if col < len(row) {
			text = row[col]
		}
		out.Rows = append(out.Rows, model.RawNameInput{Text: text, RowIndex: len(out.Rows)})
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", filepath.Base(path))
	}
	if out.Header == nil {
		return nil, eris.Errorf("fetcher: %s is empty", filepath.Base(path))
	}
	return out, nil
}

func open(ctx context.Context, path string, opts Options) (<-chan []string, <-chan error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rowCh, errCh := StreamXLSX(ctx, path, opts.Sheet)
		return rowCh, errCh, nil
	case ".csv", ".txt", ".tsv":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, eris.Wrap(err, "fetcher: open file")
		}
		csvOpts := CSVOptions{Delimiter: opts.Delimiter, LazyQuotes: true}
		if csvOpts.Delimiter == 0 && strings.EqualFold(filepath.Ext(path), ".tsv") {
			csvOpts.Delimiter = '\t'
		}
		rowCh, errCh := StreamCSV(ctx, f, csvOpts)
		return rowCh, closeAfter(f, errCh), nil
	default:
		return nil, nil, eris.Errorf("fetcher: unsupported file type %q", filepath.Ext(path))
	}
}

// closeAfter closes f once the stream behind errCh finishes.
func closeAfter(f *os.File, errCh <-chan error) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		defer f.Close()
		for err := range errCh {
			out <- err
		}
	}()
	return out
}

func resolveColumn(header []string, want string) (int, string, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	if want != "" {
		if i, ok := index[strings.ToLower(strings.TrimSpace(want))]; ok {
			return i, header[i], nil
		}
		return -1, "", eris.Errorf("fetcher: column %q not found (have %s)", want, strings.Join(header, ", "))
	}
	for _, c := range DefaultColumns {
		if i, ok := index[c]; ok {
			return i, header[i], nil
		}
	}
	return -1, "", eris.Errorf("fetcher: no name column found (tried %s)", strings.Join(DefaultColumns, ", "))
}

// drain lets the reader goroutine run to completion.
func drain(ch <-chan []string) {
	for range ch {
	}
}
