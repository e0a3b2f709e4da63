// Package worker runs the periodic snapshot loop for serve mode.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/treasuryhq/gringotts/internal/run"
)

// SnapshotGenerator defines the interface for generating snapshots.
type SnapshotGenerator interface {
	Generate(ctx context.Context) (*run.Report, error)
}

// AfterSnapshotHook is called after each successful snapshot generation.
type AfterSnapshotHook interface {
	Export(ctx context.Context, report *run.Report) error
}

// ReportWorker periodically generates portfolio snapshots.
type ReportWorker struct {
	generator SnapshotGenerator
	interval  time.Duration
	hook      AfterSnapshotHook // optional
}

// NewReportWorker creates a new ReportWorker with an optional post-generation hook.
func NewReportWorker(generator SnapshotGenerator, interval time.Duration, hook AfterSnapshotHook) *ReportWorker {
	return &ReportWorker{
		generator: generator,
		interval:  interval,
		hook:      hook,
	}
}

// Run starts the worker loop. It generates once immediately, then on every
// tick, and blocks until the context is cancelled.
func (w *ReportWorker) Run(ctx context.Context) {
	slog.Info("ReportWorker: starting", "interval", w.interval)

	w.generate(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ReportWorker: shutting down")
			return
		case <-ticker.C:
			w.generate(ctx)
		}
	}
}

func (w *ReportWorker) generate(ctx context.Context) {
	report, err := w.generator.Generate(ctx)
	if err != nil {
		slog.Error("ReportWorker: generation failed", "error", err)
		return
	}
	slog.Info("ReportWorker: generation completed",
		"totalUsd", report.Summary.TotalUSDValue,
		"failures", len(report.Failures))

	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, report); err != nil {
		slog.Error("ReportWorker: export hook failed", "error", err)
	} else {
		slog.Info("ReportWorker: export hook completed")
	}
}
