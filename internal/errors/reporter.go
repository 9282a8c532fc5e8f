package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of an error
type ErrorLevel string

const (
	Fatal ErrorLevel = "error"
	Note  ErrorLevel = "note"
)

// ErrorReporter handles consistent error formatting
type ErrorReporter struct {
	filename string
	source   string
	lines    []string
}

// NewErrorReporter creates a new error reporter for a unit file
func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{
		filename: filename,
		source:   source,
		lines:    strings.Split(source, "\n"),
	}
}

// FormatError formats an error with Rust-like styling. Errors that are not
// structured are printed as a single header line.
func (er *ErrorReporter) FormatError(err error) string {
	var result strings.Builder

	levelColor := er.getLevelColor(Fatal)
	dim := color.New(color.Faint).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	e, ok := err.(*Error)
	if !ok {
		result.WriteString(fmt.Sprintf("%s: %s\n\n", levelColor(string(Fatal)), err.Error()))
		return result.String()
	}

	// Header: error[E0610]: message
	message := e.Detail
	if message == "" {
		message = GetErrorDescription(e.Code)
	}
	if e.Code != "" {
		result.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(Fatal)), e.Code, message))
	} else {
		result.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(Fatal)), message))
	}

	line := e.Position.Line
	lineNumberWidth := er.getLineNumberWidth(line)
	indent := strings.Repeat(" ", lineNumberWidth)

	// Location line: --> filename:line:column
	if line > 0 {
		result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n",
			indent, dim("-->"), er.filename, line, e.Position.Column))
	} else {
		result.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("-->"), er.filename))
	}

	if line > 0 && line <= len(er.lines) {
		result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", lineNumberWidth, line)),
			dim("│"),
			er.lines[line-1]))
		result.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), er.createMarker(e.Position.Column)))
	}

	noteColor := er.getLevelColor(Note)
	if e.Function != "" {
		result.WriteString(fmt.Sprintf("%s %s %s in function %s\n", indent, dim("│"), noteColor("note:"), e.Function))
	}
	if e.Type != "" {
		result.WriteString(fmt.Sprintf("%s %s %s declared type %s\n", indent, dim("│"), noteColor("note:"), e.Type))
	}
	if len(e.Path) > 0 {
		result.WriteString(fmt.Sprintf("%s %s %s at %s\n", indent, dim("│"), noteColor("note:"), strings.Join(e.Path, ".")))
	}
	if e.Cause != nil {
		result.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), noteColor("caused by:"), e.Cause.Error()))
	}

	helpColor := color.New(color.FgGreen).SprintFunc()
	result.WriteString(fmt.Sprintf("%s %s %s %s (%s)\n",
		indent, dim("│"), helpColor("help:"), GetErrorDescription(e.Code), GetErrorCategory(e.Code)))

	result.WriteString("\n")
	return result.String()
}

// getLevelColor returns the appropriate color function for an error level
func (er *ErrorReporter) getLevelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// createMarker creates the underline marker for errors
func (er *ErrorReporter) createMarker(column int) string {
	spaces := strings.Repeat(" ", max(0, column-1))
	return spaces + color.New(color.FgRed, color.Bold).Sprint("^")
}

// getLineNumberWidth calculates the width needed for line numbers
func (er *ErrorReporter) getLineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3 // minimum width for visual alignment
	}
	return width
}
