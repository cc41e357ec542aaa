// Package extract parses raw ranking-page markup into ordered entries.
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/rankwatch/rankwatch/internal/rank"
)

// bookHref matches ranking item links; the capture group is the book id.
var bookHref = regexp.MustCompile(`/book/(\d+)`)

// labelBlocklist holds lowercased anchor texts that are UI controls
// rather than titles, even when their href carries a book id.
var labelBlocklist = map[string]struct{}{
	"read":           {},
	"add in library": {},
}

// Parse scans all hyperlinks in document order and returns the ranked
// entries: deduplicated by id (first occurrence wins), filtered of
// control labels, truncated to rank.MaxEntries. An empty result is not
// an error here; callers treat it as a page-structure signal. A document
// that cannot be parsed at all is an error.
func Parse(markup []byte) ([]rank.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	seen := make(map[string]struct{})
	var entries []rank.Entry
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(entries) >= rank.MaxEntries {
			return false
		}
		href, _ := sel.Attr("href")
		m := bookHref.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		title := strings.TrimSpace(sel.Text())
		if !validTitle(title) {
			return true
		}
		id := m[1]
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		entries = append(entries, rank.Entry{ID: id, Title: title, Rank: len(entries) + 1})
		return true
	})

	return entries, nil
}

func validTitle(title string) bool {
	if utf8.RuneCountInString(title) < 2 {
		return false
	}
	_, blocked := labelBlocklist[strings.ToLower(title)]
	return !blocked
}
