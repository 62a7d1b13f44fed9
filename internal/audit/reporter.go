package audit

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"rostersync/internal/logging"
	"rostersync/internal/notifications"
	"rostersync/internal/roster"
)

// Store is the slice of the roster store the reporter needs.
type Store interface {
	ListUnresolved(ctx context.Context) ([]*roster.Record, error)
}

// Report is the outcome of one audit run.
type Report struct {
	Total   int      `json:"total"`
	Sample  []string `json:"sample"`
	Emitted bool     `json:"emitted"`
}

// Reporter periodically reports records that still lack a directory identity.
// An unchanged unresolved set is suppressed: the run computes a stable
// signature over the record ids and only emits when it differs from the
// previous run's.
type Reporter struct {
	store      Store
	notifier   notifications.Service
	logger     *slog.Logger
	sampleSize int

	mu            sync.Mutex
	lastSignature string
	forced        bool
}

// NewReporter builds a Reporter. sampleSize bounds the handles included in a
// report.
func NewReporter(store Store, notifier notifications.Service, sampleSize int, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	if sampleSize <= 0 {
		sampleSize = 10
	}
	return &Reporter{
		store:      store,
		notifier:   notifier,
		logger:     logger.With(logging.String(logging.FieldComponent, "audit")),
		sampleSize: sampleSize,
	}
}

// Force makes the next RunOnce emit regardless of the stored signature.
func (r *Reporter) Force() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forced = true
}

// RunOnce fetches the unresolved set and emits a report when it changed since
// the previous run. An empty set that was empty last time stays silent too.
func (r *Reporter) RunOnce(ctx context.Context) (Report, error) {
	unresolved, err := r.store.ListUnresolved(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{Total: len(unresolved)}
	for i, rec := range unresolved {
		if i == r.sampleSize {
			break
		}
		report.Sample = append(report.Sample, rec.Handle)
	}

	signature := signature(unresolved)

	r.mu.Lock()
	changed := r.forced || signature != r.lastSignature
	r.lastSignature = signature
	r.forced = false
	r.mu.Unlock()

	if !changed {
		return report, nil
	}
	report.Emitted = true

	if r.notifier != nil && !notifications.IsNoop(r.notifier) {
		err := r.notifier.NotifyAuditReport(ctx, report.Total, report.Sample)
		if err == nil {
			return report, nil
		}
		// Failed send falls through to the local log line so the report
		// is never lost.
		r.logger.Warn("audit notification failed", logging.Error(err))
	}

	r.logger.Info("unresolved records",
		logging.Int("total", report.Total),
		logging.String("sample", strings.Join(report.Sample, ", ")))
	return report, nil
}

// signature is the record ids sorted ascending, joined with ",". The empty
// set signs as "" and sorting makes the signature order-independent.
func signature(records []*roster.Record) string {
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
