package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rankwatch/rankwatch/internal/extract"
	"github.com/rankwatch/rankwatch/internal/notify"
	"github.com/rankwatch/rankwatch/internal/rank"
	"github.com/rankwatch/rankwatch/internal/state"
)

const testURL = "https://example.com/ranking"

type fakeFetcher struct {
	body []byte
	err  error
}

func (f *fakeFetcher) Fetch(context.Context, string) ([]byte, error) {
	return f.body, f.err
}

type fakeStore struct {
	ids    []string
	status state.Status

	savedIDs     [][]string
	savedEntries [][]rank.Entry
	saveErr      error
}

func (s *fakeStore) Load() ([]string, state.Status, error) {
	return s.ids, s.status, nil
}

func (s *fakeStore) Save(ids []string, entries []rank.Entry) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedIDs = append(s.savedIDs, ids)
	s.savedEntries = append(s.savedEntries, entries)
	return nil
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, message string) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, message)
	return nil
}

func staticEntries(pairs ...[2]string) []rank.Entry {
	entries := make([]rank.Entry, 0, len(pairs))
	for i, p := range pairs {
		entries = append(entries, rank.Entry{ID: p[0], Title: p[1], Rank: i + 1})
	}
	return entries
}

func staticParse(entries []rank.Entry) ParseFunc {
	return func([]byte) ([]rank.Entry, error) {
		return entries, nil
	}
}

func newMonitor(parse ParseFunc, store state.Store, notifier notify.Notifier, force bool) *Monitor {
	return New(
		&fakeFetcher{body: []byte("<html/>")},
		parse,
		store,
		notifier,
		Config{URL: testURL, ForceNotify: force},
		zap.NewNop(),
	)
}

func TestRun_FirstRunSuppressesNotification(t *testing.T) {
	t.Parallel()

	store := &fakeStore{status: state.StatusAbsent}
	notifier := &fakeNotifier{}
	entries := staticEntries([2]string{"10", "A"}, [2]string{"20", "B"})

	m := newMonitor(staticParse(entries), store, notifier, false)
	require.NoError(t, m.Run(context.Background()))

	require.Empty(t, notifier.messages)
	require.Len(t, store.savedIDs, 1)
	require.Equal(t, []string{"10", "20"}, store.savedIDs[0])
}

func TestRun_NewTitleScenario(t *testing.T) {
	t.Parallel()

	store := &fakeStore{ids: []string{"10", "20", "30"}, status: state.StatusPresent}
	notifier := &fakeNotifier{}
	entries := staticEntries([2]string{"20", "B"}, [2]string{"30", "C"}, [2]string{"40", "D"})

	m := newMonitor(staticParse(entries), store, notifier, false)
	require.NoError(t, m.Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	require.Equal(t, 1, strings.Count(notifier.messages[0], "#03 — D"))
	require.NotContains(t, notifier.messages[0], "#01")
	require.Len(t, store.savedIDs, 1)
	require.Equal(t, []string{"20", "30", "40"}, store.savedIDs[0])
}

func TestRun_UnchangedSourceIsIdempotent(t *testing.T) {
	t.Parallel()

	entries := staticEntries([2]string{"1", "A"}, [2]string{"2", "B"})
	store := &fakeStore{ids: []string{"1", "2"}, status: state.StatusPresent}
	notifier := &fakeNotifier{}

	m := newMonitor(staticParse(entries), store, notifier, false)
	require.NoError(t, m.Run(context.Background()))
	require.Empty(t, notifier.messages)
	// Snapshot is still rewritten with identical content.
	require.Len(t, store.savedIDs, 1)
	require.Equal(t, []string{"1", "2"}, store.savedIDs[0])
}

func TestRun_CorruptStateAlertsOnEverything(t *testing.T) {
	t.Parallel()

	store := &fakeStore{status: state.StatusCorrupt}
	notifier := &fakeNotifier{}
	entries := staticEntries([2]string{"10", "A"}, [2]string{"20", "B"})

	m := newMonitor(staticParse(entries), store, notifier, false)
	require.NoError(t, m.Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "#01 — A")
	require.Contains(t, notifier.messages[0], "#02 — B")
	require.Len(t, store.savedIDs, 1)
}

func TestRun_ForceNotifyOnFirstRunSendsSample(t *testing.T) {
	t.Parallel()

	store := &fakeStore{status: state.StatusAbsent}
	notifier := &fakeNotifier{}
	entries := staticEntries([2]string{"10", "A"}, [2]string{"20", "B"})

	m := newMonitor(staticParse(entries), store, notifier, true)
	require.NoError(t, m.Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "current top")
	require.Len(t, store.savedIDs, 1)
}

func TestRun_ForceNotifyWithNothingNewSendsSample(t *testing.T) {
	t.Parallel()

	store := &fakeStore{ids: []string{"1", "2"}, status: state.StatusPresent}
	notifier := &fakeNotifier{}
	entries := staticEntries([2]string{"1", "A"}, [2]string{"2", "B"})

	m := newMonitor(staticParse(entries), store, notifier, true)
	require.NoError(t, m.Run(context.Background()))

	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "current top")
	require.Len(t, store.savedIDs, 1)
}

func TestRun_NotifyFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	store := &fakeStore{ids: []string{"1"}, status: state.StatusPresent}
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	entries := staticEntries([2]string{"1", "A"}, [2]string{"2", "B"})

	m := newMonitor(staticParse(entries), store, notifier, false)
	require.NoError(t, m.Run(context.Background()))
	require.Len(t, store.savedIDs, 1)
}

func TestRun_EmptyParseIsFatal(t *testing.T) {
	t.Parallel()

	store := &fakeStore{status: state.StatusPresent}
	m := newMonitor(staticParse(nil), store, &fakeNotifier{}, false)

	err := m.Run(context.Background())
	require.ErrorIs(t, err, ErrNoEntries)
	require.Empty(t, store.savedIDs)
}

func TestRun_FetchFailureIsFatal(t *testing.T) {
	t.Parallel()

	store := &fakeStore{status: state.StatusPresent}
	m := New(
		&fakeFetcher{err: errors.New("exhausted")},
		staticParse(staticEntries([2]string{"1", "A"})),
		store,
		&fakeNotifier{},
		Config{URL: testURL},
		zap.NewNop(),
	)

	require.Error(t, m.Run(context.Background()))
	require.Empty(t, store.savedIDs)
}

func TestRun_SaveFailureIsFatal(t *testing.T) {
	t.Parallel()

	store := &fakeStore{status: state.StatusPresent, saveErr: errors.New("disk full")}
	m := newMonitor(staticParse(staticEntries([2]string{"1", "A"})), store, &fakeNotifier{}, false)
	require.Error(t, m.Run(context.Background()))
}

func TestRun_WithRealExtractor(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		<a href="/book/100">Known Title</a>
		<a href="/book/200">Fresh Title</a>
		<a href="/book/200">Read</a>
	</body></html>`

	store := &fakeStore{ids: []string{"100"}, status: state.StatusPresent}
	notifier := &fakeNotifier{}
	m := New(
		&fakeFetcher{body: []byte(markup)},
		extract.Parse,
		store,
		notifier,
		Config{URL: testURL},
		zap.NewNop(),
	)

	require.NoError(t, m.Run(context.Background()))
	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "#02 — Fresh Title")
	require.Equal(t, []string{"100", "200"}, store.savedIDs[0])
}
