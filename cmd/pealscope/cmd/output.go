package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

// printHeader prints a formatted header
func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := visualWidth(title) + 4
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
	fmt.Fprintf(outputWriter, "  %s\n", color.Bold.Sprint(title))
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", color.Cyan.Sprint(title))
	fmt.Fprintln(outputWriter, strings.Repeat("-", visualWidth(title)+2))
}

// printKeyValues prints aligned "key: value" lines in the given order.
func printKeyValues(pairs [][2]string) {
	keyWidth := 0
	for _, p := range pairs {
		if w := visualWidth(p[0]); w > keyWidth {
			keyWidth = w
		}
	}
	for _, p := range pairs {
		fmt.Fprintf(outputWriter, "  %s  %s\n", runewidth.FillRight(p[0]+":", keyWidth+1), p[1])
	}
}

// printTable prints rows under headers with columns padded to their widest
// cell. Cells are padded before colouring so escape codes never skew widths.
func printTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = visualWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := visualWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = color.Bold.Sprint(runewidth.FillRight(h, widths[i]))
	}
	fmt.Fprintf(outputWriter, "  %s\n", strings.TrimRight(strings.Join(cells, "  "), " "))

	rules := make([]string, len(headers))
	for i := range headers {
		rules[i] = strings.Repeat("─", widths[i])
	}
	fmt.Fprintf(outputWriter, "  %s\n", strings.Join(rules, "  "))

	for _, row := range rows {
		cells = cells[:0]
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells = append(cells, runewidth.FillRight(cell, widths[i]))
		}
		fmt.Fprintf(outputWriter, "  %s\n", strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

// visualWidth returns the terminal width of s, counting wide runes twice.
func visualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// statusOK and statusFail render a coloured status mark.
func statusOK(msg string) string {
	return color.Green.Sprint("✅ " + msg)
}

func statusFail(msg string) string {
	return color.Red.Sprint("❌ " + msg)
}

func statusWarn(msg string) string {
	return color.Yellow.Sprint("⚠ " + msg)
}

// parityLabel colours a parity name.
func parityLabel(parity string) string {
	if parity == "even" {
		return color.Green.Sprint(parity)
	}
	return color.Magenta.Sprint(parity)
}
