package metadata

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrExtraction means neither the filename nor the header text yielded a
// usable document identity. Callers must skip the document rather than
// fabricate an identifier: the date code is the root of every chunk ID
// and every user-facing citation.
var ErrExtraction = errors.New("metadata extraction failed")

// Meta is the identity of one source document.
type Meta struct {
	DocumentID string // the date code, e.g. "62-0909E"
	DateCode   string
	Title      string
}

// dateCodeRe matches the archive filename convention: YY-MMDD plus an
// optional session letter (E evening, M morning, X extra).
var dateCodeRe = regexp.MustCompile(`^\d{2}-\d{4}[A-Z]?$`)

// headerDateCodeRe locates a date-code token anywhere in header text.
var headerDateCodeRe = regexp.MustCompile(`\b(\d{2}-\d{4}[A-Z]?)\b`)

// Extract derives document identity from the filename, falling back to the
// first page's text when the filename does not conform. firstPage may be
// empty when no header text is available.
func Extract(filename, firstPage string) (Meta, error) {
	if m, ok := fromFilename(filename); ok {
		return m, nil
	}
	if m, ok := fromHeader(filename, firstPage); ok {
		return m, nil
	}
	return Meta{}, fmt.Errorf("%w: no date code in filename or header of %q", ErrExtraction, filename)
}

// fromFilename parses "62-0909E In His Presence.txt".
func fromFilename(filename string) (Meta, bool) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	parts := strings.SplitN(strings.TrimSpace(base), " ", 2)
	if len(parts) == 0 || !dateCodeRe.MatchString(parts[0]) {
		return Meta{}, false
	}

	title := ""
	if len(parts) == 2 {
		title = strings.TrimSpace(parts[1])
	}
	code := parts[0]
	return Meta{DocumentID: code, DateCode: code, Title: title}, true
}

// fromHeader scans the first page for a date-code token and takes the first
// non-empty, non-numeric line as the title.
func fromHeader(filename, firstPage string) (Meta, bool) {
	if strings.TrimSpace(firstPage) == "" {
		return Meta{}, false
	}

	match := headerDateCodeRe.FindStringSubmatch(firstPage)
	if match == nil {
		return Meta{}, false
	}
	code := match[1]

	title := ""
	for _, line := range strings.Split(firstPage, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || headerDateCodeRe.MatchString(line) {
			continue
		}
		title = line
		break
	}
	if title == "" {
		// Last resort: reuse the filename stem so the citation is not blank.
		title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	return Meta{DocumentID: code, DateCode: code, Title: title}, true
}

// NormalizeTitle lowercases a title and collapses punctuation, matching how
// queries are compared against document titles.
func NormalizeTitle(s string) string {
	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9\s]`)
