package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Paragraph is one semantic unit of spoken text. Numbers are assigned
// sequentially in parse order, 1-based and gapless, so re-parsing unchanged
// source reproduces identical numbering.
type Paragraph struct {
	Number    int
	Text      string
	StartPage int
	EndPage   int
}

// Warning records a page-level problem that did not abort the parse.
type Warning struct {
	Page   int
	Reason string
}

type Result struct {
	Paragraphs []Paragraph
	Warnings   []Warning
}

// paraMarkerRe matches the transcript's own paragraph numbering at the start
// of a line: "E-1", "12", "12." or "12:".
var paraMarkerRe = regexp.MustCompile(`^\s*(E-\d+|\d+)(?:\.|:)?\s+`)

// pageNumberRe matches bare page numbers (arabic or roman) that typesetters
// place at the top or bottom of a page.
var pageNumberRe = regexp.MustCompile(`(?i)^(?:page\s+)?[0-9ivxlc]{1,8}$`)

// A transcript with more than this many numbered lines is treated as a
// numbered transcript and segmented strictly on its own markers.
const numberedThreshold = 5

// Paragraphs shorter than this are transcription fragments (stray marks,
// leftover header shreds) and are not worth a retrieval unit.
const minParagraphLen = 20

// Parse segments ordered raw pages into paragraphs. Page numbers are
// 1-based input positions. Unusually long paragraphs are kept whole;
// splitting them would break the positional identity downstream chunks
// are keyed on.
func Parse(pages []string) Result {
	var res Result

	type line struct {
		text string
		page int
	}

	cleaned := cleanPages(pages, &res.Warnings)

	var lines []line
	for i, pageLines := range cleaned {
		for _, l := range pageLines {
			lines = append(lines, line{text: l, page: i + 1})
		}
	}

	numbered := 0
	for _, l := range lines {
		if paraMarkerRe.MatchString(l.text) {
			numbered++
		}
	}
	useMarkers := numbered > numberedThreshold

	var (
		buf       []string
		startPage int
		endPage   int
	)

	flush := func() {
		if len(buf) == 0 {
			return
		}
		text := strings.Join(buf, " ")
		buf = nil
		if len(text) < minParagraphLen {
			return
		}
		res.Paragraphs = append(res.Paragraphs, Paragraph{
			Number:    len(res.Paragraphs) + 1,
			Text:      text,
			StartPage: startPage,
			EndPage:   endPage,
		})
	}

	for _, l := range lines {
		trimmed := strings.TrimSpace(l.text)
		if trimmed == "" {
			if !useMarkers {
				flush()
			}
			continue
		}

		if useMarkers && paraMarkerRe.MatchString(trimmed) {
			flush()
		}

		if len(buf) == 0 {
			startPage = l.page
		}
		endPage = l.page
		buf = append(buf, trimmed)
	}
	flush()

	return res
}

// cleanPages strips positional noise: undecodable pages, bare page numbers
// at the page edges, and running headers/footers that repeat in the same
// position across pages. The filter is positional so it generalizes across
// documents without a maintained blocklist.
func cleanPages(pages []string, warnings *[]Warning) [][]string {
	cleaned := make([][]string, len(pages))

	firstSeen := map[string]int{}
	lastSeen := map[string]int{}

	split := make([][]string, len(pages))
	for i, page := range pages {
		if !utf8.ValidString(page) {
			*warnings = append(*warnings, Warning{Page: i + 1, Reason: "page text is not valid UTF-8, skipped"})
			continue
		}
		ls := strings.Split(page, "\n")
		split[i] = ls
		if f := firstNonEmpty(ls); f != "" {
			firstSeen[normalizeNoise(f)]++
		}
		if l := lastNonEmpty(ls); l != "" {
			lastSeen[normalizeNoise(l)]++
		}
	}

	// A line repeating at the same page edge on at least three pages and
	// half the document is a running header or footer.
	repeats := func(seen map[string]int, s string) bool {
		n := seen[normalizeNoise(s)]
		return n >= 3 && n*2 >= len(pages)
	}

	for i, ls := range split {
		if ls == nil {
			continue
		}
		var kept []string
		firstIdx, lastIdx := edgeIndices(ls)
		for j, l := range ls {
			trimmed := strings.TrimSpace(l)
			atEdge := j == firstIdx || j == lastIdx
			if atEdge && trimmed != "" {
				if pageNumberRe.MatchString(trimmed) {
					continue
				}
				if (j == firstIdx && repeats(firstSeen, trimmed)) ||
					(j == lastIdx && repeats(lastSeen, trimmed)) {
					continue
				}
			}
			kept = append(kept, l)
		}
		cleaned[i] = kept
	}

	return cleaned
}

func firstNonEmpty(lines []string) string {
	for _, l := range lines {
		if s := strings.TrimSpace(l); s != "" {
			return s
		}
	}
	return ""
}

func lastNonEmpty(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}

// edgeIndices returns the indices of the first and last non-empty lines.
func edgeIndices(lines []string) (int, int) {
	first, last := -1, -1
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if first == -1 {
			first = i
		}
		last = i
	}
	return first, last
}

func normalizeNoise(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
