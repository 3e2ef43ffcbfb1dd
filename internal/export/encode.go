package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// sheetName is the worksheet used by xlsx exports.
const sheetName = "Data"

// Encode writes items to w in format.
func Encode[T any](w io.Writer, items []T, columns []Column[T], format Format) error {
	switch format {
	case FormatCSV:
		return encodeDelimited(w, items, columns, ',')
	case FormatExcel:
		return encodeDelimited(w, items, columns, '\t')
	case FormatJSON:
		return encodeJSON(w, items)
	case FormatXLSX:
		return encodeXLSX(w, items, columns)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func encodeDelimited[T any](w io.Writer, items []T, columns []Column[T], comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(columns))
	for _, item := range items {
		for i, c := range columns {
			row[i] = c.format(item)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func encodeXLSX[T any](w io.Writer, items []T, columns []Column[T]) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for r, item := range items {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = c.cell(item)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
