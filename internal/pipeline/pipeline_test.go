package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfarm/flock-performance-service/internal/domain"
	"github.com/smartfarm/flock-performance-service/internal/observability"
	"github.com/smartfarm/flock-performance-service/internal/pipeline"
	"github.com/smartfarm/flock-performance-service/internal/standard"
)

// --- mocks ---

type mockExtractor struct {
	mu      sync.Mutex
	batches [][]domain.RawEvent
	errs    []error // returned, in order, before any batch
	idx     int
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	m.mu.Lock()
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		m.mu.Unlock()
		return nil, err
	}
	if m.idx < len(m.batches) {
		b := m.batches[m.idx]
		m.idx++
		m.mu.Unlock()
		return b, nil
	}
	m.mu.Unlock()

	// block until context cancelled to simulate waiting for records
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockLoader struct {
	mu       sync.Mutex
	failures int
	loaded   []domain.Assessment
	calls    int
}

func (m *mockLoader) LoadBatch(_ context.Context, assessments []domain.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, assessments...)
	return nil
}

func newTransformer() *pipeline.AssessmentTransformer {
	return pipeline.NewTransformer(standard.HyLineMaxPro())
}

func opts() pipeline.Options {
	return pipeline.Options{BatchSize: 10, PublishUnmatched: true}
}

// flakyTransformer fails the first failures calls with err, or every call
// when failures is negative, then delegates to next.
type flakyTransformer struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
	next     pipeline.Transformer
}

func (f *flakyTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.Assessment, error) {
	f.mu.Lock()
	f.calls++
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		f.mu.Unlock()
		return domain.Assessment{}, f.err
	}
	f.mu.Unlock()
	return f.next.Transform(ctx, raw)
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

func withCommitFlag(raw domain.RawEvent, flag *atomic.Bool) domain.RawEvent {
	raw.Commit = func(_ context.Context) error {
		flag.Store(true)
		return nil
	}
	return raw
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	var committed atomic.Bool
	raw := withCommitFlag(makeRawRecord(t, "rec-1", "2024-07-01"), &committed)

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, newTransformer(), ldr, slog.Default(), metrics, opts())
	require.Error(t, p.CheckReadiness(context.Background()))

	runFor(t, p, 500*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "flock-a1", ldr.loaded[0].FlockID)
	assert.Equal(t, 26, ldr.loaded[0].AgeWeek)
	assert.True(t, ldr.loaded[0].StandardFound)
	assert.True(t, committed.Load())
	assert.NoError(t, p.CheckReadiness(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AssessmentsProduced))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.TransformErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MetricStatus.WithLabelValues(domain.MetricHenDay, "within")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	ldr := &mockLoader{}

	p := pipeline.New(ext, newTransformer(), ldr, slog.Default(), observability.NewMetricsForTesting(), opts())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_InvalidRecordDroppedAndCommitted(t *testing.T) {
	var committed atomic.Bool
	raw := withCommitFlag(domain.RawEvent{Key: []byte("bad"), Value: []byte("not json")}, &committed)

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, newTransformer(), ldr, slog.Default(), metrics, opts())
	runFor(t, p, 500*time.Millisecond)

	assert.Empty(t, ldr.loaded)
	assert.Equal(t, 0, ldr.calls, "nothing to load")
	assert.True(t, committed.Load(), "invalid record must be committed")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.TransformRetries))
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_MixedBatchPublishesUnmatched(t *testing.T) {
	good := makeRawRecord(t, "rec-1", "2024-07-01")
	missing := makeRawRecord(t, "rec-2", "2024-03-11") // week 10, not in table
	bad := domain.RawEvent{Value: []byte(`{"flock_id":""}`)}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{good, bad, missing}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, newTransformer(), ldr, slog.Default(), metrics, opts())
	runFor(t, p, 500*time.Millisecond)

	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, "rec-1", ldr.loaded[0].RecordID)
	assert.Equal(t, "rec-2", ldr.loaded[1].RecordID)
	assert.False(t, ldr.loaded[1].StandardFound)
	assert.Empty(t, ldr.loaded[1].Metrics)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.RecordsConsumed))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.AssessmentsProduced))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StandardMisses))
}

func TestPipeline_Run_UnmatchedDroppedWhenNotPublished(t *testing.T) {
	var goodCommitted, missingCommitted atomic.Bool
	good := withCommitFlag(makeRawRecord(t, "rec-1", "2024-07-01"), &goodCommitted)
	missing := withCommitFlag(makeRawRecord(t, "rec-2", "2024-03-11"), &missingCommitted)

	ext := &mockExtractor{batches: [][]domain.RawEvent{{missing, good}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, newTransformer(), ldr, slog.Default(), metrics,
		pipeline.Options{BatchSize: 10, PublishUnmatched: false})
	runFor(t, p, 500*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "rec-1", ldr.loaded[0].RecordID)
	assert.True(t, goodCommitted.Load())
	assert.True(t, missingCommitted.Load(), "dropped unmatched record must be committed")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StandardMisses))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.TransformErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AssessmentsProduced))
}

func TestPipeline_Run_OnlyUnmatchedRecordsIsNotReady(t *testing.T) {
	var committed atomic.Bool
	missing := withCommitFlag(makeRawRecord(t, "rec-2", "2024-03-11"), &committed)

	ext := &mockExtractor{batches: [][]domain.RawEvent{{missing}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, newTransformer(), ldr, slog.Default(), observability.NewMetricsForTesting(),
		pipeline.Options{BatchSize: 10})
	runFor(t, p, 500*time.Millisecond)

	assert.Equal(t, 0, ldr.calls)
	assert.True(t, committed.Load())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransientTransformErrorRetried(t *testing.T) {
	var committed atomic.Bool
	raw := withCommitFlag(makeRawRecord(t, "rec-1", "2024-07-01"), &committed)

	tfm := &flakyTransformer{failures: 1, err: errors.New("table reload in progress"), next: newTransformer()}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, opts())
	runFor(t, p, time.Second)

	assert.Equal(t, 2, tfm.calls)
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "rec-1", ldr.loaded[0].RecordID)
	assert.True(t, committed.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformRetries))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.TransformErrors))
}

func TestPipeline_Run_PersistentTransientErrorNeverCommits(t *testing.T) {
	var committed atomic.Bool
	raw := withCommitFlag(makeRawRecord(t, "rec-1", "2024-07-01"), &committed)

	tfm := &flakyTransformer{failures: -1, err: errors.New("still failing"), next: newTransformer()}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tfm, ldr, slog.Default(), observability.NewMetricsForTesting(), opts())
	runFor(t, p, 500*time.Millisecond)

	assert.GreaterOrEqual(t, tfm.calls, 2)
	assert.Empty(t, ldr.loaded)
	assert.False(t, committed.Load(), "a record that was never assessed must not be committed")
}

func TestPipeline_Run_WrappedInvalidRecordIsNotRetried(t *testing.T) {
	tfm := &flakyTransformer{
		failures: -1,
		err:      fmt.Errorf("decode: %w", domain.ErrInvalidRecord),
		next:     newTransformer(),
	}
	raw := makeRawRecord(t, "rec-1", "2024-07-01")
	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, tfm, &mockLoader{}, slog.Default(), metrics, opts())
	runFor(t, p, 500*time.Millisecond)

	assert.Equal(t, 1, tfm.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.TransformRetries))
}

func TestPipeline_Run_LoadFailureRetriesSameBatch(t *testing.T) {
	var committed atomic.Bool
	first := withCommitFlag(makeRawRecord(t, "rec-1", "2024-07-01"), &committed)

	ext := &mockExtractor{batches: [][]domain.RawEvent{{first}}}
	ldr := &mockLoader{failures: 1}

	p := pipeline.New(ext, newTransformer(), ldr, slog.Default(), observability.NewMetricsForTesting(), opts())
	runFor(t, p, time.Second)

	assert.Equal(t, 2, ldr.calls)
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "rec-1", ldr.loaded[0].RecordID)
	assert.True(t, committed.Load())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_NothingCommittedUntilPublished(t *testing.T) {
	var badCommitted, goodCommitted atomic.Bool
	bad := withCommitFlag(domain.RawEvent{Value: []byte("not json")}, &badCommitted)
	good := withCommitFlag(makeRawRecord(t, "rec-1", "2024-07-01"), &goodCommitted)

	ext := &mockExtractor{batches: [][]domain.RawEvent{{good, bad}}}
	ldr := &mockLoader{failures: 1000}

	p := pipeline.New(ext, newTransformer(), ldr, slog.Default(), observability.NewMetricsForTesting(), opts())
	runFor(t, p, 500*time.Millisecond)

	assert.Empty(t, ldr.loaded)
	assert.False(t, goodCommitted.Load())
	assert.False(t, badCommitted.Load(), "a later offset must not be committed ahead of an unpublished one")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ExtractErrorRetries(t *testing.T) {
	raw := makeRawRecord(t, "rec-1", "2024-07-01")

	ext := &mockExtractor{
		errs:    []error{errors.New("fetch failed")},
		batches: [][]domain.RawEvent{{raw}},
	}
	ldr := &mockLoader{}

	p := pipeline.New(ext, newTransformer(), ldr, slog.Default(), observability.NewMetricsForTesting(), opts())
	runFor(t, p, time.Second)

	assert.Len(t, ldr.loaded, 1)
}

func TestAssessmentTransformer_Transform(t *testing.T) {
	raw := makeRawRecord(t, "rec-3", "2024-05-06") // 126 days: week 18

	a, err := newTransformer().Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, 18, a.AgeWeek)
	assert.True(t, a.StandardFound)
	assert.NotEmpty(t, a.ID)
}

func TestAssessmentTransformer_InvalidRecord(t *testing.T) {
	_, err := newTransformer().Transform(context.Background(), domain.RawEvent{Value: []byte("{}")})
	require.ErrorIs(t, err, domain.ErrInvalidRecord)
}

// --- helpers ---

func makeRawRecord(t *testing.T, id, recordDate string) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.DailyRecord{
		ID:                 id,
		FlockID:            "flock-a1",
		FlockEntryDate:     "2024-01-01",
		RecordDate:         recordDate,
		Population:         10000,
		EggProduction:      9620,
		EggWeightKg:        573.8,
		AverageBodyWeightG: 1841,
		FeedConsumptionKg:  1140,
	})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(id),
		Value: data,
	}
}
