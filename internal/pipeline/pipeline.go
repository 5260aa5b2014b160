package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/smartfarm/flock-performance-service/internal/domain"
	"github.com/smartfarm/flock-performance-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw daily records from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns a raw daily record into an assessment. Errors wrapping
// domain.ErrInvalidRecord are permanent; any other error is retried.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Assessment, error)
}

// BatchLoader publishes assessments to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, assessments []domain.Assessment) error
}

// Options tunes how records flow through the pipeline.
type Options struct {
	BatchSize int

	// PublishUnmatched publishes assessments for flock ages the standard does
	// not cover. When false they are committed without being published.
	PublishUnmatched bool
}

// Pipeline reads daily records, assesses them against the breed standard and
// publishes the assessments. A record's offset is committed only once its
// assessment is published or the record is deliberately dropped.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        Options
	retry       *backoff
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
		retry:       newBackoff(200*time.Millisecond, 5*time.Second),
	}
}

// CheckReadiness reports ready once the first batch of assessments has been
// published.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no assessments published yet")
	}
	return nil
}

// Run processes batches until ctx is cancelled. It returns nil on shutdown.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"batch_size", p.opts.BatchSize,
		"publish_unmatched", p.opts.PublishUnmatched,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for ctx.Err() == nil {
		if !p.step(ctx) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// step handles one batch. It returns false when the pipeline must stop.
func (p *Pipeline) step(ctx context.Context) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.opts.BatchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.retry.wait(ctx)
	}
	if len(batch) == 0 {
		return true
	}
	p.retry.reset()
	p.metrics.RecordsConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	var out batchOutcome
	for _, raw := range batch {
		a, v := p.assess(ctx, raw)
		switch v {
		case verdictStop:
			return false
		case verdictDrop:
			out.dropped++
		case verdictPublish:
			out.add(a)
		}
	}

	if len(out.assessments) > 0 {
		if !p.publish(ctx, out.assessments) {
			return false
		}
		p.metrics.AssessmentsProduced.Add(float64(len(out.assessments)))
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}

	// Kafka offsets are cumulative per partition, so nothing in the batch is
	// committed until everything that should be published has been.
	p.commit(ctx, batch)
	out.log(p.logger)
	return true
}

type verdict int

const (
	verdictPublish verdict = iota
	verdictDrop
	verdictStop
)

// assess transforms one record. Invalid records are dropped, unmatched ages
// are dropped unless PublishUnmatched is set, and any other failure is
// retried with backoff until it succeeds or ctx ends.
func (p *Pipeline) assess(ctx context.Context, raw domain.RawEvent) (domain.Assessment, verdict) {
	for {
		a, err := p.transformer.Transform(ctx, raw)
		if err == nil {
			p.metrics.ObserveAssessment(a)
			if a.StandardFound {
				return a, verdictPublish
			}
			p.logger.Info("no standard for flock age",
				"flock_id", a.FlockID,
				"record_date", a.RecordDate,
				"age_days", a.AgeDays,
				"age_week", a.AgeWeek,
				"published", p.opts.PublishUnmatched,
			)
			if !p.opts.PublishUnmatched {
				return a, verdictDrop
			}
			return a, verdictPublish
		}

		if errors.Is(err, domain.ErrInvalidRecord) {
			p.logger.Warn("invalid daily record, skipping",
				"error", err,
				"key", string(raw.Key),
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			return domain.Assessment{}, verdictDrop
		}

		p.logger.Error("assessment failed, retrying",
			"error", err,
			"key", string(raw.Key),
			"offset", raw.Offset,
		)
		p.metrics.TransformRetries.Inc()
		if !p.retry.wait(ctx) {
			return domain.Assessment{}, verdictStop
		}
	}
}

// publish loads the batch, retrying with backoff until the sink accepts it
// or ctx ends. Offsets stay uncommitted until it succeeds.
func (p *Pipeline) publish(ctx context.Context, assessments []domain.Assessment) bool {
	for {
		err := p.loader.LoadBatch(ctx, assessments)
		if err == nil {
			p.retry.reset()
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("publish assessments failed, retrying", "error", err, "batch_size", len(assessments))
		if !p.retry.wait(ctx) {
			return false
		}
	}
}

func (p *Pipeline) commit(ctx context.Context, raws []domain.RawEvent) {
	for _, raw := range raws {
		if raw.Commit == nil {
			continue
		}
		if err := raw.Commit(ctx); err != nil {
			p.logger.Warn("commit offset failed", "error", err,
				"partition", raw.Partition, "offset", raw.Offset)
		}
	}
}

// batchOutcome collects what a batch publishes, grouped by flock for the
// summary log.
type batchOutcome struct {
	assessments []domain.Assessment
	dropped     int
	flocks      map[string]*flockSummary
}

type flockSummary struct {
	records   int
	unmatched int
	outOfBand int
}

func (o *batchOutcome) add(a domain.Assessment) {
	o.assessments = append(o.assessments, a)

	if o.flocks == nil {
		o.flocks = make(map[string]*flockSummary)
	}
	s, ok := o.flocks[a.FlockID]
	if !ok {
		s = &flockSummary{}
		o.flocks[a.FlockID] = s
	}
	s.records++
	if !a.StandardFound {
		s.unmatched++
	}
	for _, m := range a.Metrics {
		if m.Status != domain.StatusWithin {
			s.outOfBand++
		}
	}
}

func (o *batchOutcome) log(logger *slog.Logger) {
	logger.Debug("batch processed",
		"assessments", len(o.assessments),
		"dropped", o.dropped,
		"flocks", len(o.flocks),
	)
	for id, s := range o.flocks {
		logger.Debug("flock assessed",
			"flock_id", id,
			"records", s.records,
			"unmatched", s.unmatched,
			"metrics_out_of_band", s.outOfBand,
		)
	}
}
