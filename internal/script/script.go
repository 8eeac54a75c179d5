// Package script assembles LAMMPS input decks as ordered command
// buffers. Stage builders append whole substages; the buffer renders
// to one stage_<n>.in file.
package script

import (
	"fmt"
	"os"
	"strings"
)

const (
	firstColumnWidth = 20
	ruleLine         = "#-------------------------------------------------------------------------------"
	commentWidth     = 76
)

// Script is an append-only buffer of input lines.
type Script struct {
	lines []string
}

// Append formats a command line, left-padding the first token so
// arguments line up in a column, and adds it to the buffer.
func (s *Script) Append(line string) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}
	s.lines = append(s.lines, fmt.Sprintf("%-*s%s",
		firstColumnWidth, words[0], strings.Join(words[1:], " ")))
}

// Raw adds a line without any formatting.
func (s *Script) Raw(line string) {
	s.lines = append(s.lines, line)
}

// Comment adds a boxed comment block.
func (s *Script) Comment(text string, blankBefore bool) {
	if blankBefore {
		s.lines = append(s.lines, "")
	}
	s.lines = append(s.lines, ruleLine, "# "+text, ruleLine)
}

// StageTitle adds the banner that opens a whole stage file.
func (s *Script) StageTitle(number int, title, description string) {
	s.lines = append(s.lines, ruleLine)
	s.lines = append(s.lines, fmt.Sprintf("# LAMMPS Stage %d: %s", number, title))
	for _, line := range wrap(description, commentWidth) {
		s.lines = append(s.lines, "# "+line)
	}
	s.lines = append(s.lines, ruleLine)
}

// SubstageTitle adds the banner that opens one substage.
func (s *Script) SubstageTitle(stage, substage int, title, description string) {
	s.lines = append(s.lines, ruleLine)
	s.lines = append(s.lines, fmt.Sprintf("# Substage %d.%d: %s", stage, substage, title))
	for _, line := range wrap(description, commentWidth) {
		s.lines = append(s.lines, "# "+line)
	}
	s.lines = append(s.lines, ruleLine)
}

// Lines returns the buffered lines.
func (s *Script) Lines() []string {
	return s.lines
}

func (s *Script) String() string {
	return strings.Join(s.lines, "\n") + "\n"
}

// WriteFile renders the buffer to path.
func (s *Script) WriteFile(path string) error {
	return os.WriteFile(path, []byte(s.String()), 0644)
}

// wrap breaks text into lines of at most width characters on word
// boundaries.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var out []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			out = append(out, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(out, line)
}
