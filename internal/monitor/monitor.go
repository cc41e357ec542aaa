// Package monitor sequences one monitoring cycle: fetch the ranking
// page, extract entries, diff against the persisted snapshot, notify
// when new titles appear, and rewrite the snapshot.
package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rankwatch/rankwatch/internal/notify"
	"github.com/rankwatch/rankwatch/internal/rank"
	"github.com/rankwatch/rankwatch/internal/state"
)

// ErrNoEntries is returned when the page fetched fine but yielded no
// ranking entries. Continuing would poison the next run's diff, so this
// aborts the cycle before anything is persisted.
var ErrNoEntries = errors.New("no ranking entries extracted; page structure may have changed")

// Fetcher obtains raw page markup.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ParseFunc turns raw markup into ordered ranking entries.
type ParseFunc func(markup []byte) ([]rank.Entry, error)

// Config holds the run-scoped settings.
type Config struct {
	// URL is the ranking page to poll.
	URL string
	// ForceNotify sends a notification even when nothing is new, and
	// even on the first run. Used for manual delivery verification.
	ForceNotify bool
}

// Monitor runs one fetch/diff/notify/persist cycle per invocation.
type Monitor struct {
	fetcher  Fetcher
	parse    ParseFunc
	store    state.Store
	notifier notify.Notifier
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Monitor.
func New(
	fetcher Fetcher,
	parse ParseFunc,
	store state.Store,
	notifier notify.Notifier,
	cfg Config,
	logger *zap.Logger,
) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		fetcher:  fetcher,
		parse:    parse,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes the cycle. Only exhausted fetch retries, an empty parse
// result, and a snapshot write failure abort the run; notification
// failures are logged and swallowed. The snapshot is rewritten on every
// run that gets past parsing, whether or not anything was new.
func (m *Monitor) Run(ctx context.Context) error {
	logger := m.logger.With(zap.String("run_id", uuid.NewString()))

	markup, err := m.fetcher.Fetch(ctx, m.cfg.URL)
	if err != nil {
		return fmt.Errorf("fetch ranking page: %w", err)
	}

	entries, err := m.parse(markup)
	if err != nil {
		return fmt.Errorf("parse ranking page: %w", err)
	}
	if len(entries) == 0 {
		return ErrNoEntries
	}

	currentIDs := rank.IDs(entries)
	seenIDs, status, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	newIDs := rank.NewIDs(currentIDs, seenIDs)

	logger.Info("ranking fetched",
		zap.Int("entries", len(entries)),
		zap.Stringer("prior_state", status),
		zap.Int("new_ids", len(newIDs)),
	)

	// Genuine first run: initialize silently so the channel is not
	// flooded with fifty "new" titles. A corrupt prior snapshot does
	// not qualify; it previously existed, so everything current is
	// reported as new.
	if status == state.StatusAbsent && !m.cfg.ForceNotify {
		if err := m.store.Save(currentIDs, entries); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
		logger.Info("first run, snapshot initialized", zap.Int("ids", len(currentIDs)))
		return nil
	}

	switch {
	case status == state.StatusAbsent && m.cfg.ForceNotify:
		// Forced first run is a delivery check, not a real alert; a
		// full list of fifty "new" titles would be noise.
		m.send(ctx, logger, notify.SampleMessage(entries, m.cfg.URL), 0)
	case len(newIDs) > 0:
		m.send(ctx, logger, notify.NewTitlesMessage(newIDs, entries, m.cfg.URL), len(newIDs))
	case m.cfg.ForceNotify:
		m.send(ctx, logger, notify.SampleMessage(entries, m.cfg.URL), 0)
	default:
		logger.Info("no new titles")
	}

	if err := m.store.Save(currentIDs, entries); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

func (m *Monitor) send(ctx context.Context, logger *zap.Logger, message string, newCount int) {
	if err := m.notifier.Notify(ctx, message); err != nil {
		logger.Error("notification delivery failed", zap.Error(err))
		return
	}
	logger.Info("notification sent", zap.Int("new_ids", newCount))
}
