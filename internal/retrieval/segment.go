package retrieval

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// MinSectionLength is the trimmed length (in characters) a section must exceed to be kept.
const MinSectionLength = 100

// markerPattern matches article/section markers, the explanatory marker and known topic headings.
var markerPattern = regexp.MustCompile(`Article \d+|Section \d+|In simple terms:|Consumer Protection Act|Cyberbullying|Property Disputes|Women's Safety|Basic Labour`)

// SplitPoints returns the byte offsets, in ascending order, at which a new section begins.
// Offset 0 is never included: text before the first marker belongs to section zero.
func SplitPoints(text string) []int {
	points := make(map[int]struct{})

	// Scan one byte past each match start so markers starting inside an earlier match are found.
	for pos := 0; pos < len(text); {
		loc := markerPattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		points[start] = struct{}{}
		pos = start + 1
	}

	for _, start := range caseCitationStarts(text) {
		points[start] = struct{}{}
	}

	delete(points, 0)
	out := make([]int, 0, len(points))
	for p := range points {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// caseCitationStarts returns the line starts where a case citation such as
// "Maneka Gandhi v. Union of India" begins: an ASCII capital letter followed by anything but a
// period (newlines included) up to "v.". The next period is found once and reused by every
// later line start before it, so the scan is linear in the text length.
func caseCitationStarts(text string) []int {
	var out []int
	dot := -1
	for _, start := range lineStarts(text) {
		if start >= len(text) || text[start] < 'A' || text[start] > 'Z' {
			continue
		}
		if dot <= start {
			i := strings.IndexByte(text[start+1:], '.')
			if i < 0 {
				dot = len(text)
			} else {
				dot = start + 1 + i
			}
		}
		if dot < len(text) && dot-1 > start && text[dot-1] == 'v' {
			out = append(out, start)
		}
	}
	return out
}

func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' || text[i] == '\r' {
			if i+1 < len(text) {
				starts = append(starts, i+1)
			}
		}
	}
	return starts
}

// Split cuts text at every boundary reported by SplitPoints. Concatenating the pieces
// reproduces text exactly.
func Split(text string) []string {
	if text == "" {
		return nil
	}
	points := SplitPoints(text)
	pieces := make([]string, 0, len(points)+1)
	prev := 0
	for _, p := range points {
		pieces = append(pieces, text[prev:p])
		prev = p
	}
	return append(pieces, text[prev:])
}

// Segment splits text into sections and keeps those whose trimmed length exceeds
// MinSectionLength. Retained sections are numbered in order starting at zero.
func Segment(text, origin string) []Section {
	var sections []Section
	for _, piece := range Split(text) {
		if utf8.RuneCountInString(strings.TrimSpace(piece)) <= MinSectionLength {
			continue
		}
		sections = append(sections, Section{
			Text:   piece,
			Index:  len(sections),
			Origin: origin,
		})
	}
	return sections
}
