package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"jakangroup/catalogworker/internal/catalog"
	"jakangroup/catalogworker/logger"
	"jakangroup/catalogworker/services/publisher"
	"jakangroup/catalogworker/services/sink"
)

// Worker runs one full crawl over the configured targets and persists each
// target's result set. Targets are processed strictly in order, one at a
// time, so at most one HTTP request is ever in flight.
type Worker struct {
	engine  *catalog.Engine
	targets []catalog.Target
	sinks   []sink.Sink
	pub     publisher.Publisher
	log     *logger.Logger
}

// Summary aggregates the outcome of one run.
type Summary struct {
	Targets       int
	FailedTargets int
	PagesFetched  int
	Products      int
	Elapsed       time.Duration
}

// NewWorker creates a new worker. The publisher is optional.
func NewWorker(engine *catalog.Engine, targets []catalog.Target, sinks []sink.Sink, pub publisher.Publisher) *Worker {
	return &Worker{
		engine:  engine,
		targets: targets,
		sinks:   sinks,
		pub:     pub,
		log:     logger.ForComponent("worker"),
	}
}

// Run crawls every target. A failed target crawl is logged and skipped; a
// sink write failure aborts the run and propagates to the caller.
func (w *Worker) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	for _, target := range w.targets {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = time.Since(start)
			return summary, err
		}

		results, stats, err := w.engine.Crawl(ctx, target)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				summary.Elapsed = time.Since(start)
				return summary, err
			}
			w.log.Error().Str("target", target.Name).Err(err).Msg("Target crawl failed")
			summary.FailedTargets++
			continue
		}

		summary.Targets++
		summary.PagesFetched += stats.PagesFetched
		summary.Products += stats.Products

		records := results.Records()
		for _, s := range w.sinks {
			if err := s.Write(ctx, records); err != nil {
				summary.Elapsed = time.Since(start)
				return summary, err
			}
		}

		w.publish(ctx, target, records)
	}

	if w.pub != nil {
		if err := w.pub.TrimStreams(ctx); err != nil {
			w.log.Error().Err(err).Msg("Stream trimming failed")
		}
	}

	summary.Elapsed = time.Since(start)
	return summary, nil
}

// publish fans the records out to the stream publisher. Publishing is a
// side channel; failures are logged, never fatal.
func (w *Worker) publish(ctx context.Context, target catalog.Target, records []catalog.ProductRecord) {
	if w.pub == nil {
		return
	}

	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			w.log.Error().Str("target", target.Name).Err(err).Msg("Record marshal failed")
			continue
		}
		if err := w.pub.Publish(ctx, target.Name, data); err != nil {
			w.log.Error().Str("target", target.Name).Err(err).Msg("Record publish failed")
		}
	}
}
