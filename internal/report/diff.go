package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// Op classifies one diff line.
type Op int

const (
	OpUnchanged Op = iota
	OpAdded
	OpRemoved
)

// Line is one line of the old or new document with its diff classification.
type Line struct {
	Op   Op
	Text string
}

// Diff computes a line-level diff between two document texts.
func Diff(oldText, newText string) []Line {
	a := splitLines(oldText)
	b := splitLines(newText)

	var lines []Line
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, text := range a[op.I1:op.I2] {
				lines = append(lines, Line{Op: OpUnchanged, Text: text})
			}
		case 'd':
			for _, text := range a[op.I1:op.I2] {
				lines = append(lines, Line{Op: OpRemoved, Text: text})
			}
		case 'i':
			for _, text := range b[op.J1:op.J2] {
				lines = append(lines, Line{Op: OpAdded, Text: text})
			}
		case 'r':
			for _, text := range a[op.I1:op.I2] {
				lines = append(lines, Line{Op: OpRemoved, Text: text})
			}
			for _, text := range b[op.J1:op.J2] {
				lines = append(lines, Line{Op: OpAdded, Text: text})
			}
		}
	}
	return lines
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// FormatDiff renders a classic +/-/space block, one marker per line. Suitable
// for a ```diff fence in markdown.
func FormatDiff(lines []Line) string {
	var b strings.Builder
	for _, line := range lines {
		switch line.Op {
		case OpAdded:
			b.WriteString("+")
		case OpRemoved:
			b.WriteString("-")
		default:
			b.WriteString(" ")
		}
		b.WriteString(line.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// WriteColored writes the diff to w with ANSI colors for terminals.
func WriteColored(w io.Writer, lines []Line) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)

	for _, line := range lines {
		switch line.Op {
		case OpAdded:
			fmt.Fprintln(w, added.Sprintf("+%s", line.Text))
		case OpRemoved:
			fmt.Fprintln(w, removed.Sprintf("-%s", line.Text))
		default:
			fmt.Fprintf(w, " %s\n", line.Text)
		}
	}
}
