package systeminfo

import (
	"net"
	"strings"
)

// normalizeLines splits raw command output into lines and collapses the
// double-space indentation systeminfo uses to align its columns.
func normalizeLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.ReplaceAll(strings.TrimSuffix(l, "\r"), "  ", "")
	}
	return lines
}

// collectUntil appends lines[start:] that satisfy item until the first line
// that satisfies stop. The stop line is not consumed. Reaching the end of
// input first is an error and no partial list is returned.
func collectUntil(lines []string, start int, list string, item, stop func(string) bool) ([]string, error) {
	out := []string{}
	for i := start; ; i++ {
		if i >= len(lines) {
			return nil, &OutOfRangeError{List: list, Line: start}
		}
		if stop(lines[i]) {
			return out, nil
		}
		if item(lines[i]) {
			out = append(out, lines[i])
		}
	}
}

func anyLine(string) bool { return true }

func containsFold(line, sub string) bool {
	return strings.Contains(strings.ToLower(line), sub)
}

// valueAfter returns the trimmed text following label, matched
// case-insensitively.
func valueAfter(line, label string) string {
	idx := strings.Index(strings.ToLower(line), label)
	if idx < 0 {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(line[idx+len(label):])
}

func isBracketLine(line string) bool {
	return strings.Contains(line, "[") && strings.Contains(line, "]")
}

func isBracketItem(line string) bool {
	return strings.Contains(line, "[") && strings.Contains(line, "]:")
}

// bracketValue strips a leading "[nn]:" index from a continuation line.
func bracketValue(line string) string {
	s := strings.TrimSpace(line)
	if strings.HasPrefix(s, "[") {
		if end := strings.Index(s, "]:"); end >= 0 {
			return strings.TrimSpace(s[end+2:])
		}
	}
	return s
}

// looksLikeIP applies the dot-count heuristic. Values that parse as an
// address are also accepted so IPv6 entries stay with their adapter.
func looksLikeIP(value string) bool {
	return strings.Count(value, ".") >= 3 || net.ParseIP(value) != nil
}
