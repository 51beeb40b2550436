// Package export writes parse results as CSV, XLSX or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/tidyframe/tidyframe/internal/model"
)

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// WarningSeparator joins warnings into one spreadsheet cell.
const WarningSeparator = "; "

// Columns is the header row of tabular exports.
var Columns = []string{
	"row_index",
	"original_text",
	"first_name",
	"last_name",
	"entity_type",
	"gender",
	"gender_confidence",
	"parsing_confidence",
	"is_agricultural",
	"parsing_method",
	"fallback_reason",
	"warnings",
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", eris.Errorf("export: unsupported output type %q", filepath.Ext(path))
	}
}

// Document is the JSON export envelope.
type Document struct {
	ExportedAt time.Time              `json:"exported_at"`
	Total      int                    `json:"total"`
	Statistics *model.BatchStatistics `json:"statistics,omitempty"`
	Results    []model.ParsedName     `json:"results"`
}

// WriteFile writes results to path in the format its extension names.
// stats is only included in JSON output and may be nil.
func WriteFile(path string, results []model.ParsedName, stats *model.BatchStatistics) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	defer f.Close() //nolint:errcheck

	switch format {
	case FormatCSV:
		err = WriteCSV(f, results)
	case FormatXLSX:
		err = WriteXLSX(f, results)
	default:
		err = WriteJSON(f, results, stats)
	}
	if err != nil {
		return err
	}
	return eris.Wrap(f.Close(), "export: close file")
}

// WriteCSV writes results as CSV with a header row.
func WriteCSV(w io.Writer, results []model.ParsedName) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range results {
		if err := cw.Write(Record(r)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes results as a single-sheet workbook.
func WriteXLSX(w io.Writer, results []model.ParsedName) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Results")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range Columns {
		header.AddCell().SetString(c)
	}
	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.RowIndex)
		row.AddCell().SetString(r.OriginalText)
		row.AddCell().SetString(r.FirstName)
		row.AddCell().SetString(r.LastName)
		row.AddCell().SetString(string(r.EntityType))
		row.AddCell().SetString(string(r.Gender))
		row.AddCell().SetFloat(r.GenderConfidence)
		row.AddCell().SetFloat(r.ParsingConfidence)
		row.AddCell().SetBool(r.IsAgricultural)
		row.AddCell().SetString(string(r.ParsingMethod))
		row.AddCell().SetString(string(r.FallbackReason))
		row.AddCell().SetString(strings.Join(r.Warnings, WarningSeparator))
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

// WriteJSON writes results wrapped in a Document.
func WriteJSON(w io.Writer, results []model.ParsedName, stats *model.BatchStatistics) error {
	if results == nil {
		results = []model.ParsedName{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	doc := Document{
		ExportedAt: time.Now().UTC(),
		Total:      len(results),
		Statistics: stats,
		Results:    results,
	}
	return eris.Wrap(enc.Encode(doc), "export: encode json")
}

// ReadJSON decodes a Document written by WriteJSON.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "export: decode json")
	}
	return &doc, nil
}

// Record renders one result as a tabular row matching Columns.
func Record(r model.ParsedName) []string {
	return []string{
		strconv.Itoa(r.RowIndex),
		r.OriginalText,
		r.FirstName,
		r.LastName,
		string(r.EntityType),
		string(r.Gender),
		formatFloat(r.GenderConfidence),
		formatFloat(r.ParsingConfidence),
		strconv.FormatBool(r.IsAgricultural),
		string(r.ParsingMethod),
		string(r.FallbackReason),
		strings.Join(r.Warnings, WarningSeparator),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
