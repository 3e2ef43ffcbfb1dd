// Package export serializes a filtered view to CSV, JSON, tab-delimited
// "Excel" text or a real .xlsx workbook and saves it as a date-stamped file.
package export

import (
	"fmt"
	"strconv"
	"strings"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	// FormatExcel is tab-delimited text saved with an .xls extension.
	// Spreadsheet applications open it, but it is not a binary workbook.
	FormatExcel Format = "excel"
	// FormatXLSX is a real Office Open XML workbook.
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatExcel, FormatXLSX}

// ParseFormat converts user input into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "excel", "xls", "tsv":
		return FormatExcel, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Extension returns the file extension, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return "xls"
	default:
		return string(f)
	}
}

// ContentType returns the MIME type of the encoded output.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatExcel:
		return "application/vnd.ms-excel"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Column describes one exported column of T. Exactly one of Text and Number is set.
type Column[T any] struct {
	Header   string
	Text     func(T) string
	Number   func(T) float64
	Decimals int
}

// TextColumn exports a string field.
func TextColumn[T any](header string, value func(T) string) Column[T] {
	return Column[T]{Header: header, Text: value}
}

// IntColumn exports an integer field.
func IntColumn[T any](header string, value func(T) int) Column[T] {
	return Column[T]{Header: header, Number: func(v T) float64 { return float64(value(v)) }}
}

// NumberColumn exports a float field with a fixed number of decimals.
func NumberColumn[T any](header string, value func(T) float64, decimals int) Column[T] {
	return Column[T]{Header: header, Number: value, Decimals: decimals}
}

// format renders the cell as display text.
func (c Column[T]) format(row T) string {
	if c.Number != nil {
		return strconv.FormatFloat(c.Number(row), 'f', c.Decimals, 64)
	}
	return c.Text(row)
}

// cell returns the value written to a spreadsheet cell.
func (c Column[T]) cell(row T) any {
	if c.Number != nil {
		v, _ := strconv.ParseFloat(c.format(row), 64)
		return v
	}
	return c.Text(row)
}
