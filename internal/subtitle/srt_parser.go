package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var timingLineRegex = regexp.MustCompile(
	`^(-?\d{2,}:\d{2}:\d{2}[,.]\d{3})\s*-->\s*(-?\d{2,}:\d{2}:\d{2}[,.]\d{3})(?:\s.*)?$`,
)

// ParseFile opens and parses a SubRip file.
func ParseFile(path string) ([]Cue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer file.Close()

	cues, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cues, nil
}

// Parse reads a SubRip document into an ordered cue timeline.
//
// A block starts at a digit-only line that is immediately followed by a
// timing line; its text is every following non-blank line joined by a single
// space. The gap of the cue declared as index-1 is back-filled when a block
// closes, so documents whose physical order differs from their numbering
// still get gaps between consecutive indices. Indices are kept as declared.
func Parse(r io.Reader) ([]Cue, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	var cues []Cue
	byIndex := make(map[int]int)

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !isDigits(line) {
			continue
		}

		lineNum := i + 1
		if i+1 >= len(lines) {
			return nil, &MalformedError{Line: lineNum, Reason: "cue index without timing line"}
		}
		match := timingLineRegex.FindStringSubmatch(lines[i+1])
		if match == nil {
			return nil, &MalformedError{
				Line:   lineNum + 1,
				Reason: fmt.Sprintf("expected timing line after index %s, got %q", line, lines[i+1]),
			}
		}

		index, err := strconv.Atoi(line)
		if err != nil {
			return nil, &MalformedError{Line: lineNum, Reason: "cue index out of range", Err: err}
		}
		start, err := DecodeTimestamp(match[1])
		if err != nil {
			return nil, &MalformedError{Line: lineNum + 1, Reason: "invalid start timestamp", Err: err}
		}
		end, err := DecodeTimestamp(match[2])
		if err != nil {
			return nil, &MalformedError{Line: lineNum + 1, Reason: "invalid end timestamp", Err: err}
		}

		j := i + 2
		var textLines []string
		for ; j < len(lines) && lines[j] != ""; j++ {
			textLines = append(textLines, lines[j])
		}
		i = j

		cue := Cue{
			Index:   index,
			StartMS: start,
			EndMS:   end,
			Text:    strings.Join(textLines, " "),
		}

		if prev, ok := byIndex[index-1]; ok {
			cues[prev].GapToNextMS = cue.StartMS - cues[prev].EndMS
		}
		byIndex[index] = len(cues)
		cues = append(cues, cue)
	}

	return cues, nil
}

// DuplicateIndices returns, in ascending order, every index declared by more
// than one cue. Gap back-fill for such documents attaches to the last cue
// seen with the preceding index.
func DuplicateIndices(cues []Cue) []int {
	seen := make(map[int]int, len(cues))
	for _, cue := range cues {
		seen[cue.Index]++
	}

	var dups []int
	for index, n := range seen {
		if n > 1 {
			dups = append(dups, index)
		}
	}
	sort.Ints(dups)
	return dups
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT document: %w", err)
	}
	return lines, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
