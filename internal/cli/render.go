package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/raphaelgruber/oceanboard/internal/dataview"
)

// renderTable draws rows under headers using the current theme.
func renderTable(headers []string, rows [][]string) string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	header := theme.titleStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.borderStyle()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	return t.Render()
}

// printHeading writes a section title followed by where the data came from.
func printHeading(w io.Writer, title string, origin dataview.Origin) {
	badge := theme.statusStyle().Render("[live]")
	if origin == dataview.OriginSynthetic {
		badge = theme.warningStyle().Render("[sample data]")
	}
	fmt.Fprintf(w, "%s %s\n", theme.titleStyle().Render(title), badge)
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// clampLimit bounds a display limit to [0, n].
func clampLimit(limit, n int) int {
	return max(0, min(limit, n))
}
