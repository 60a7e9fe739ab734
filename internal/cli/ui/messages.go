package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message is a multi-line notice with optional suggestions and hints
type Message struct {
	Level       Level
	Title       string
	Detail      string
	Suggestions []string // rendered as "Did you mean: a, b?"
	Hints       []string // rendered one per line with an arrow
	NoColor     bool
}

// Format renders m
//
// Example output:
//
//	✗ UNKNOWN MIGRATION: 20250117_Initial
//	   Did you mean: 20250117000000_Initial?
//
//	   → List migrations: apolon migrate status
func (m Message) Format() string {
	var b strings.Builder

	var symbol string
	var header *color.Color
	switch m.Level {
	case LevelWarning:
		symbol, header = "!", color.New(color.FgYellow, color.Bold)
	case LevelInfo:
		symbol, header = "i", color.New(color.FgCyan, color.Bold)
	default:
		symbol, header = "✗", color.New(color.FgRed, color.Bold)
	}
	hint := color.New(color.FgCyan)
	suggest := color.New(color.FgYellow)
	if m.NoColor {
		header.DisableColor()
		hint.DisableColor()
		suggest.DisableColor()
	}

	header.Fprintf(&b, "%s %s\n", symbol, m.Title)
	if m.Detail != "" {
		fmt.Fprintf(&b, "   %s\n", m.Detail)
	}
	if len(m.Suggestions) > 0 {
		suggest.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}
	if len(m.Hints) > 0 {
		b.WriteString("\n")
		for _, h := range m.Hints {
			hint.Fprintf(&b, "   → %s\n", h)
		}
	}
	return b.String()
}

// Write writes the formatted message to w
func (m Message) Write(w io.Writer) {
	fmt.Fprint(w, m.Format())
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}
