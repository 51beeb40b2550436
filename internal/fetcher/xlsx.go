package fetcher

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions selects the worksheet to read.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // matched case-insensitively; overrides SheetIndex
}

// StreamXLSX sends every row of one worksheet, header included, to a
// channel. Missing rows are sent as empty slices so positions match the
// sheet. Both channels are closed when the sheet is exhausted.
func StreamXLSX(ctx context.Context, path string, opts XLSXOptions) (<-chan []string, <-chan error) {
	rows := make(chan []string, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(rows)
		defer close(errs)

		wb, err := xlsx.OpenFile(path)
		if err != nil {
			errs <- eris.Wrapf(err, "xlsx: open %s", path)
			return
		}

		sheet, err := pickSheet(wb, opts)
		if err != nil {
			errs <- err
			return
		}

		for _, row := range sheet.Rows {
			select {
			case rows <- cellValues(row):
			case <-ctx.Done():
				errs <- eris.Wrap(ctx.Err(), "xlsx: read cancelled")
				return
			}
		}
	}()

	return rows, errs
}

func pickSheet(wb *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		for _, s := range wb.Sheets {
			if strings.EqualFold(s.Name, opts.SheetName) {
				return s, nil
			}
		}
		return nil, eris.Errorf("xlsx: no sheet named %q", opts.SheetName)
	}
	if opts.SheetIndex < 0 || opts.SheetIndex >= len(wb.Sheets) {
		return nil, eris.Errorf("xlsx: sheet %d requested but workbook has %d", opts.SheetIndex, len(wb.Sheets))
	}
	return wb.Sheets[opts.SheetIndex], nil
}

// cellValues returns the trimmed display text of each cell, dropping
// trailing empty cells.
func cellValues(row *xlsx.Row) []string {
	if row == nil {
		return []string{}
	}
	vals := make([]string, 0, len(row.Cells))
	for _, c := range row.Cells {
		vals = append(vals, strings.TrimSpace(c.String()))
	}
	for len(vals) > 0 && vals[len(vals)-1] == "" {
		vals = vals[:len(vals)-1]
	}
	return vals
}
