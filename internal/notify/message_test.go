package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rankwatch/rankwatch/internal/rank"
)

const testSource = "https://example.com/ranking"

func TestNewTitlesMessage(t *testing.T) {
	t.Parallel()

	current := []rank.Entry{
		{ID: "20", Title: "B", Rank: 1},
		{ID: "30", Title: "C", Rank: 2},
		{ID: "40", Title: "D", Rank: 3},
	}
	msg := NewTitlesMessage([]string{"40"}, current, testSource)

	require.Equal(t, 1, strings.Count(msg, "#03 — D"))
	require.NotContains(t, msg, "#01")
	require.NotContains(t, msg, "#02")
	require.Contains(t, msg, "<b>Webnovel • Monthly Power Rank</b>")
	require.Contains(t, msg, "Source: "+testSource)
}

func TestNewTitlesMessage_ZeroPadsRanks(t *testing.T) {
	t.Parallel()

	current := []rank.Entry{{ID: "1", Title: "Leader", Rank: 1}}
	msg := NewTitlesMessage([]string{"1"}, current, testSource)
	require.Contains(t, msg, "#01 — Leader")
}

func TestNewTitlesMessage_EscapesTitles(t *testing.T) {
	t.Parallel()

	current := []rank.Entry{{ID: "9", Title: "Sword & <Sorcery>", Rank: 1}}
	msg := NewTitlesMessage([]string{"9"}, current, testSource)
	require.Contains(t, msg, "Sword &amp; &lt;Sorcery&gt;")
	require.NotContains(t, msg, "<Sorcery>")
}

func TestNewTitlesMessage_PreservesRankOrder(t *testing.T) {
	t.Parallel()

	current := []rank.Entry{
		{ID: "1", Title: "First", Rank: 1},
		{ID: "2", Title: "Second", Rank: 2},
		{ID: "3", Title: "Third", Rank: 3},
	}
	msg := NewTitlesMessage([]string{"1", "3"}, current, testSource)
	require.Less(t, strings.Index(msg, "#01 — First"), strings.Index(msg, "#03 — Third"))
}

func TestSampleMessage(t *testing.T) {
	t.Parallel()

	var current []rank.Entry
	for i := 1; i <= 10; i++ {
		current = append(current, rank.Entry{ID: string(rune('a' + i)), Title: "Title", Rank: i})
	}
	msg := SampleMessage(current, testSource)
	require.Equal(t, SampleSize, strings.Count(msg, "— Title"))
	require.Contains(t, msg, "#05")
	require.NotContains(t, msg, "#06")
}

func TestSampleMessage_ShortList(t *testing.T) {
	t.Parallel()

	msg := SampleMessage([]rank.Entry{{ID: "1", Title: "Only", Rank: 1}}, testSource)
	require.Contains(t, msg, "#01 — Only")
}
