package cmd

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/KaramelBytes/tabula-cli/internal/utils"
)

const maxCellWidth = 40

var (
	primaryColor = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7C79FF"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	barColor     = lipgloss.AdaptiveColor{Light: "#02BA84", Dark: "#02D98E"}

	titleStyle  = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	barStyle    = lipgloss.NewStyle().Foreground(barColor)

	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

func okLine(w io.Writer, format string, a ...any) {
	okColor.Fprintf(w, "✓ "+format+"\n", a...)
}

func warnLine(w io.Writer, format string, a ...any) {
	warnColor.Fprintf(w, "⚠ "+format+"\n", a...)
}

func errorLine(w io.Writer, format string, a ...any) {
	errColor.Fprintf(w, "✗ "+format+"\n", a...)
}

// renderTable draws a bordered grid; cells wider than maxCellWidth are cut.
func renderTable(headers []string, rows [][]string) string {
	cut := make([][]string, len(rows))
	for i, r := range rows {
		cut[i] = make([]string, len(r))
		for j, c := range r {
			cut[i][j] = truncate(c, maxCellWidth)
		}
	}
	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(cut...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// bar renders v as a run of blocks proportional to v/maxAbs.
func bar(v, maxAbs float64, width int) string {
	if maxAbs <= 0 || v == 0 {
		return ""
	}
	n := int(float64(width)*abs(v)/maxAbs + 0.5)
	if n == 0 {
		n = 1
	}
	return barStyle.Render(strings.Repeat("█", n))
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func writeJSON(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
