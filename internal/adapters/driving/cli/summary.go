package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// Summary table colours in the ANSI 16-colour space, so they degrade
// cleanly on basic terminals.
var (
	summaryHeaderStyle = lipgloss.NewStyle().Bold(true)
	summaryOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // Green
	summaryFailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // Red
	summaryMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // Gray
)

// stdoutIsTerminal reports whether stdout is a TTY. Colour styling is
// limited to interactive sessions; piped output stays plain.
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// renderSummary renders the end-of-run table, one row per gene, with
// failed genes' errors listed below it.
func renderSummary(report *domain.RunReport, colour bool) string {
	headers := []string{"GENE", "STATUS", "COLUMNS", "VARIANTS", "UNMAPPED", "TIME"}

	rows := make([][]string, 0, len(report.Genes))
	for _, g := range report.Genes {
		status := "ok"
		if g.Failed() {
			status = "failed"
		}
		rows = append(rows, []string{
			g.Gene,
			status,
			strconv.Itoa(len(g.Conservation)),
			strconv.Itoa(len(g.Variants)),
			strconv.Itoa(g.Diagnostics.UnmappedVariants),
			g.Elapsed.Round(time.Millisecond).String(),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		if i > 0 {
			b.WriteString("  ")
		}
		cell := pad(h, widths[i])
		if colour {
			cell = summaryHeaderStyle.Render(cell)
		}
		b.WriteString(cell)
	}
	b.WriteByte('\n')

	for _, row := range rows {
		for i, value := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			cell := pad(value, widths[i])
			if colour && i == 1 {
				if value == "ok" {
					cell = summaryOKStyle.Render(cell)
				} else {
					cell = summaryFailStyle.Render(cell)
				}
			}
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}

	failed := report.FailedGenes()
	totals := fmt.Sprintf("%d gene(s), %d failed, %s total",
		len(report.Genes), len(failed), report.Elapsed.Round(time.Millisecond))
	if colour {
		totals = summaryMutedStyle.Render(totals)
	}
	b.WriteByte('\n')
	b.WriteString(totals)

	for _, g := range report.Genes {
		if !g.Failed() {
			continue
		}
		line := fmt.Sprintf("%s: %v", g.Gene, g.Err)
		if colour {
			line = summaryFailStyle.Render(line)
		}
		b.WriteByte('\n')
		b.WriteString(line)
	}

	return b.String()
}

// pad right-pads a cell to the column width.
func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
