package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	styleHeader  = lipgloss.NewStyle().Bold(true)
	styleFaint   = lipgloss.NewStyle().Faint(true)
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// printTable writes rows under header. On a terminal the columns are
// aligned and the header is styled; otherwise rows are tab-separated so
// the output stays easy to script against.
func printTable(header []string, rows [][]string) {
	if quiet {
		return
	}
	if !stdoutIsTerminal() {
		fmt.Fprintln(os.Stdout, strings.Join(header, "\t"))
		for _, row := range rows {
			fmt.Fprintln(os.Stdout, strings.Join(row, "\t"))
		}
		return
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(firstLine(cell)))
		}
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(styleHeader.Render(pad(h, widths[i], i == len(header)-1)))
	}
	fmt.Fprintln(os.Stdout, strings.TrimRight(b.String(), " "))
	for _, row := range rows {
		b.Reset()
		for i, cell := range row {
			b.WriteString(pad(firstLine(cell), widths[i], i == len(row)-1))
		}
		fmt.Fprintln(os.Stdout, strings.TrimRight(b.String(), " "))
	}
}

func pad(s string, width int, last bool) string {
	if last {
		return s
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s)+2)
}

// firstLine keeps table rows on one line; multi-line cells are marked.
func firstLine(s string) string {
	if line, _, ok := strings.Cut(s, "\n"); ok {
		return line + " " + styleFaint.Render("…")
	}
	return s
}
