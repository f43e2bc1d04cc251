// Package ui renders CLI output.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cast"

	"github.com/satishbabariya/docsql/query"
	"github.com/satishbabariya/docsql/telemetry"
)

var (
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	sqlStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor).
			Padding(0, 1)
)

// NullText is shown for NULL column values
const NullText = "NULL"

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...any) {
	fmt.Println(SuccessStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

// PrintError prints an error message
func PrintError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...any) {
	fmt.Println(WarningStyle.Render("⚠ " + fmt.Sprintf(format, args...)))
}

// PrintInfo prints an info message using fatih/color
func PrintInfo(format string, args ...any) {
	color.New(color.FgCyan).Printf("ℹ "+format+"\n", args...)
}

// PrintSQL prints a statement in a bordered block
func PrintSQL(sql string, params any) {
	body := sql
	if params != nil {
		body += "\n" + SecondaryStyle.Render(fmt.Sprintf("params: %v", params))
	}
	fmt.Println(sqlStyle.Render(body))
}

// PrintSpinner creates a spinner and returns it
func PrintSpinner(message string) (*pterm.SpinnerPrinter, error) {
	return pterm.DefaultSpinner.WithText(message).Start()
}

// TableData converts rows to a header line and string cells. Columns are
// sorted unless order is given.
func TableData(rows []query.Row, order ...string) (headers []string, cells [][]string) {
	headers = order
	if len(headers) == 0 {
		seen := map[string]bool{}
		for _, row := range rows {
			for k := range row {
				if !seen[k] {
					seen[k] = true
					headers = append(headers, k)
				}
			}
		}
		sort.Strings(headers)
	}

	for _, row := range rows {
		line := make([]string, len(headers))
		for i, h := range headers {
			line[i] = cell(row[h])
		}
		cells = append(cells, line)
	}
	return headers, cells
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return NullText
	case []byte:
		return string(t)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// WriteRows writes rows as a table
func WriteRows(w io.Writer, rows []query.Row) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, SecondaryStyle.Render("(no rows)"))
		return nil
	}
	headers, cells := TableData(rows)
	data := pterm.TableData{headers}
	data = append(data, cells...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

// WriteStats writes a statement statistics summary
func WriteStats(w io.Writer, snap telemetry.Snapshot) {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Statements") + "\n")
	for _, s := range snap.Types {
		fmt.Fprintf(&b, "  %-8s %4d  errors %d  avg %v  max %v\n", s.Type, s.Count, s.Errors, s.Average(), s.Max)
	}
	fmt.Fprintf(&b, "  total    %4d  errors %d  time %v", snap.Statements, snap.Errors, snap.Total)
	fmt.Fprintln(w, b.String())
}
