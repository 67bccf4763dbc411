package metrics

import (
	"context"
	"time"

	"kllc.dev/kllc/internal/engine"
)

// InstrumentedVCS times every call to the wrapped client
type InstrumentedVCS struct {
	next    engine.VersionControl
	metrics *Metrics
}

// InstrumentVCS wraps next so its operations are recorded in m
func InstrumentVCS(next engine.VersionControl, m *Metrics) *InstrumentedVCS {
	return &InstrumentedVCS{next: next, metrics: m}
}

func (v *InstrumentedVCS) observe(operation string, start time.Time, err error) {
	v.metrics.observeVCS(operation, time.Since(start).Seconds(), err)
}

func (v *InstrumentedVCS) CurrentBranch(ctx context.Context) (branch string, err error) {
	start := time.Now()
	defer func() { v.observe("current_branch", start, err) }()
	return v.next.CurrentBranch(ctx)
}

func (v *InstrumentedVCS) IsClean(ctx context.Context) (clean bool, err error) {
	start := time.Now()
	defer func() { v.observe("is_clean", start, err) }()
	return v.next.IsClean(ctx)
}

func (v *InstrumentedVCS) CreateBranch(ctx context.Context, name, base string) (err error) {
	start := time.Now()
	defer func() { v.observe("create_branch", start, err) }()
	return v.next.CreateBranch(ctx, name, base)
}

func (v *InstrumentedVCS) Commit(ctx context.Context, message string) (err error) {
	start := time.Now()
	defer func() { v.observe("commit", start, err) }()
	return v.next.Commit(ctx, message)
}

func (v *InstrumentedVCS) Tag(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { v.observe("tag", start, err) }()
	return v.next.Tag(ctx, name)
}
