package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Brand colors
var (
	Brand  = color.New(color.FgHiMagenta, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

const Phone = "\U0001F4F1" // 📱

// Banner prints the pocketllm banner followed by a subtitle.
func Banner(subtitle string) {
	fmt.Printf("%s %s — %s\n", Phone, Brand.Sprint("pocketllm"), subtitle)
	fmt.Println(Subtle.Sprint(strings.Repeat("=", 50)))
	fmt.Println()
}

// Table prints a simple aligned table.
func Table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Println(headerLine)
	Subtle.Println(sepLine)

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += fmt.Sprintf("%-*s  ", widths[i], cell)
			}
		}
		fmt.Println(line)
	}
}

// StatusIcon returns a status icon string.
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

// WarnIcon returns a warning icon.
func WarnIcon() string {
	return Warn.Sprint("⚠")
}

// Fail prints a failure line in the "❌ message" form.
func Fail(format string, a ...any) {
	Bad.Printf("❌ "+format+"\n", a...)
}

// Done prints a success line in the "✅ message" form.
func Done(format string, a ...any) {
	Good.Printf("✅ "+format+"\n", a...)
}

// Step prints a progress line.
func Step(icon, format string, a ...any) {
	fmt.Printf(icon+" "+format+"\n", a...)
}

// GB formats a byte count as gigabytes.
func GB(bytes int64) string {
	return fmt.Sprintf("%.2f GB", float64(bytes)/(1<<30))
}

// MB formats a byte count as megabytes.
func MB(bytes int64) string {
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
}
