package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"ID", "STATUS"}, &TableOptions{NoColor: true})
	table.AddRow("20250117000000_Initial", "applied")
	table.AddRow("2", "pending")
	table.Render()

	want := "ID                      STATUS\n" +
		"----------------------  -------\n" +
		"20250117000000_Initial  applied\n" +
		"2                       pending\n"
	if buf.String() != want {
		t.Errorf("unexpected table output:\n%q\nwant:\n%q", buf.String(), want)
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", table.Len())
	}
}

func TestTableCellColor(t *testing.T) {
	var buf bytes.Buffer
	called := 0
	table := NewTable(&buf, []string{"A", "B"}, &TableOptions{
		NoColor: true,
		CellColor: func(column int, cell string) *color.Color {
			called++
			if column == 1 {
				return color.New(color.FgGreen)
			}
			return nil
		},
	})
	table.AddRow("x", "y")
	table.Render()

	if called != 2 {
		t.Errorf("expected colorizer per cell, got %d calls", called)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected no escape codes with NoColor, got %q", buf.String())
	}
}

func TestTableWithoutHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, nil, nil).Render()
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Version", "dev")
	kv.AddRow("Go version", "go1.24")
	kv.Render()

	want := "Version:    dev\nGo version: go1.24\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestMessageFormat(t *testing.T) {
	msg := Message{
		Title:       "UNKNOWN MIGRATION: 20250117_Initial",
		Detail:      "No migration has this id.",
		Suggestions: []string{"20250117000000_Initial"},
		Hints:       []string{"List migrations: apolon migrate status"},
		NoColor:     true,
	}

	want := "✗ UNKNOWN MIGRATION: 20250117_Initial\n" +
		"   No migration has this id.\n" +
		"   Did you mean: 20250117000000_Initial?\n" +
		"\n" +
		"   → List migrations: apolon migrate status\n"
	if got := msg.Format(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	warn := Message{Level: LevelWarning, Title: "careful", NoColor: true}.Format()
	if warn != "! careful\n" {
		t.Errorf("unexpected warning %q", warn)
	}
}

func TestFormatSuccess(t *testing.T) {
	if got := FormatSuccess("done", true); got != "✓ done" {
		t.Errorf("got %q", got)
	}
}

func TestSuggest(t *testing.T) {
	ids := []string{"20250117000000_Initial", "20250201000000_AddNotes", "20250301000000_Indexes"}

	tests := []struct {
		target string
		want   []string
	}{
		{"initial", []string{"20250117000000_Initial"}},
		{"20250117000000_Inital", []string{"20250117000000_Initial"}},
		{"20250201000000_AddNote", []string{"20250201000000_AddNotes"}},
		{"something-else", nil},
	}

	for _, tt := range tests {
		got := Suggest(tt.target, ids)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("Suggest(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
