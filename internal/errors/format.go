package errors

import (
	"fmt"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string    { return color(colorRed, text) }
func yellow(text string) string { return color(colorYellow, text) }
func cyan(text string) string   { return color(colorCyan, text) }
func white(text string) string  { return color(colorWhite, text) }
func gray(text string) string   { return color(colorGray, text) }
func bold(text string) string   { return color(colorBold, text) }

// Format renders the error for terminal display. Human-facing errors carry a
// red ✗ marker so they stand apart from routine log lines.
func (e *RelightError) Format() string {
	var b strings.Builder

	b.WriteString(red(bold("✗ ")))
	if e.Code != "" {
		b.WriteString(white(bold(e.Code + ": ")))
	}
	b.WriteString(white(e.Message))
	b.WriteString("\n")

	if e.Detail != "" {
		b.WriteString("  ")
		b.WriteString(e.Detail)
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(gray(e.Wrapped.Error()))
		b.WriteString("\n")
	}

	if e.Suggestion != "" {
		b.WriteString("\n  ")
		b.WriteString(yellow("hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n")
	}

	return b.String()
}

// FormatError renders any error for terminal display.
// Coded errors get the full layout; plain errors get the marker only.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	if re, ok := AsRelightError(err); ok {
		return re.Format()
	}
	return fmt.Sprintf("%s%s\n", red(bold("✗ ")), err.Error())
}

// Summary returns a one-line rendering of the error with its category.
func Summary(err error) string {
	re, ok := AsRelightError(err)
	if !ok {
		return err.Error()
	}
	return joinNonEmpty(" ", cyan("["+string(re.Category)+"]"), re.Error())
}
