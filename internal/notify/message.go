package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/rankwatch/rankwatch/internal/rank"
)

const messageTitle = "<b>Webnovel • Monthly Power Rank</b>"

// SampleSize is how many top entries a forced notification shows when
// there is nothing new to report.
const SampleSize = 5

// NewTitlesMessage renders the alert for newly appeared ids. Each line
// shows the entry's current rank and title; titles are escaped because
// the sink interprets the body as HTML.
func NewTitlesMessage(newIDs []string, current []rank.Entry, source string) string {
	byID := make(map[string]rank.Entry, len(current))
	for _, e := range current {
		byID[e.ID] = e
	}
	var lines []string
	for _, id := range newIDs {
		e, ok := byID[id]
		if !ok {
			continue
		}
		lines = append(lines, entryLine(e))
	}
	return build("New <b>titles</b> entered the list:", lines, source)
}

// SampleMessage renders a verification message with the current top
// entries, used when the always-alert override fires with no new ids.
func SampleMessage(current []rank.Entry, source string) string {
	n := SampleSize
	if n > len(current) {
		n = len(current)
	}
	lines := make([]string, 0, n)
	for _, e := range current[:n] {
		lines = append(lines, entryLine(e))
	}
	return build("No new titles; current top of the list:", lines, source)
}

func entryLine(e rank.Entry) string {
	return fmt.Sprintf("#%02d — %s", e.Rank, html.EscapeString(e.Title))
}

func build(header string, lines []string, source string) string {
	return messageTitle + "\n" + header + "\n\n" +
		strings.Join(lines, "\n") +
		"\n\nSource: " + source
}
