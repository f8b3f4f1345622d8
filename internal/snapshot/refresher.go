package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/miradorstack/sda-engine/internal/extractors"
	"github.com/miradorstack/sda-engine/internal/metrics"
	"github.com/miradorstack/sda-engine/internal/repo"
	"github.com/miradorstack/sda-engine/internal/utils"
)

// HistorySource yields completed approval decisions.
type HistorySource interface {
	FetchDecisionRecords(ctx context.Context, since time.Time) ([]repo.DecisionRecord, error)
}

// WorkloadSource yields currently open approvals.
type WorkloadSource interface {
	FetchPendingApprovals(ctx context.Context) ([]repo.PendingApproval, error)
}

// RefresherConfig tunes the refresh loop.
type RefresherConfig struct {
	Interval   time.Duration
	Lookback   time.Duration
	MinSamples int
}

// Refresher rebuilds snapshots from the history and workload sources.
type Refresher struct {
	store    *Store
	history  HistorySource
	workload WorkloadSource
	stats    *extractors.HistoryExtractor
	counts   *extractors.WorkloadExtractor
	cfg      RefresherConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewRefresher wires a refresher. Either source may be nil, in which case that part
// of the snapshot stays empty.
func NewRefresher(store *Store, history HistorySource, workload WorkloadSource, cfg RefresherConfig, logger *slog.Logger) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 180 * 24 * time.Hour
	}
	return &Refresher{
		store:    store,
		history:  history,
		workload: workload,
		stats:    extractors.NewHistoryExtractor(cfg.MinSamples),
		counts:   extractors.NewWorkloadExtractor(),
		cfg:      cfg,
		logger:   utils.OrDefault(logger),
		now:      time.Now,
	}
}

// Refresh builds and publishes a new snapshot. A part whose source fails keeps the
// value from the previous snapshot, and RefreshedAt only advances when every
// configured source succeeded. When every source fails nothing is published.
func (r *Refresher) Refresh(ctx context.Context) error {
	prev := r.store.Current()
	next := &Snapshot{Stats: prev.Stats, Workload: prev.Workload, RefreshedAt: prev.RefreshedAt}
	now := r.now()

	var errs []error
	if r.history != nil {
		records, err := r.history.FetchDecisionRecords(ctx, now.Add(-r.cfg.Lookback))
		if err != nil {
			errs = append(errs, utils.NewAppError("snapshot.history", "fetch decision records", err))
		} else {
			agg := r.stats.Aggregate(records)
			if agg.Skipped > 0 {
				r.logger.Warn("skipped decision records", slog.Int("count", agg.Skipped))
			}
			next.Stats = agg.Stats
		}
	}
	if r.workload != nil {
		items, err := r.workload.FetchPendingApprovals(ctx)
		if err != nil {
			errs = append(errs, utils.NewAppError("snapshot.workload", "fetch pending approvals", err))
		} else {
			count := r.counts.Count(items)
			if count.Skipped > 0 {
				r.logger.Warn("skipped pending approvals", slog.Int("count", count.Skipped))
			}
			next.Workload = count.Pending
		}
	}

	if len(errs) > 0 && len(errs) == r.sources() {
		metrics.ObserveSnapshotRefresh(metrics.OutcomeError, time.Time{})
		return errors.Join(errs...)
	}

	if len(errs) == 0 {
		next.RefreshedAt = now
	}
	r.store.Publish(next)
	r.logger.Debug("snapshot refreshed",
		slog.Int("roles_with_history", len(next.Stats)),
		slog.Int("roles_with_workload", len(next.Workload)),
	)
	if len(errs) > 0 {
		metrics.ObserveSnapshotRefresh(metrics.OutcomeError, time.Time{})
		return errors.Join(errs...)
	}
	metrics.ObserveSnapshotRefresh(metrics.OutcomeSuccess, now)
	return nil
}

// Run refreshes immediately and then on every interval until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	r.refreshAndLog(ctx)
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshAndLog(ctx)
		}
	}
}

func (r *Refresher) refreshAndLog(ctx context.Context) {
	if err := r.Refresh(ctx); err != nil {
		r.logger.Warn("snapshot refresh incomplete", slog.Any("error", err))
	}
}

func (r *Refresher) sources() int {
	n := 0
	if r.history != nil {
		n++
	}
	if r.workload != nil {
		n++
	}
	return n
}
