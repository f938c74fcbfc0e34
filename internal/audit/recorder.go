package audit

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/perceptlab/study-engine/pkg/models"
)

// Sink persists trail rows. The Postgres store satisfies it; both appends are
// best-effort and log their own failures.
type Sink interface {
	AppendAudit(ctx context.Context, ev *models.AuditEvent)
	AppendMetric(ctx context.Context, m *models.PerformanceMetric)
}

const (
	bufferSize     = 1024
	writeTimeout   = 5 * time.Second
	reportInterval = 1 * time.Hour
)

// Recorder decouples request handling from trail persistence: handlers enqueue
// audit events and performance metrics, a single background loop writes them.
// The trigger-written events (participant_created, consent_recorded,
// submission_created) never pass through here; those commit with their parent
// transaction.
type Recorder struct {
	sink    Sink
	events  chan *models.AuditEvent
	metrics chan *models.PerformanceMetric
	dropped atomic.Int64
}

func NewRecorder(sink Sink) *Recorder {
	return &Recorder{
		sink:    sink,
		events:  make(chan *models.AuditEvent, bufferSize),
		metrics: make(chan *models.PerformanceMetric, bufferSize),
	}
}

// Event enqueues one audit row. Never blocks: when the buffer is full the row
// is dropped and counted, keeping request latency flat under overload.
func (r *Recorder) Event(ev *models.AuditEvent) {
	select {
	case r.events <- ev:
	default:
		r.dropped.Add(1)
	}
}

// Metric enqueues one per-request timing row, with the same drop policy.
func (r *Recorder) Metric(m *models.PerformanceMetric) {
	select {
	case r.metrics <- m:
	default:
		r.dropped.Add(1)
	}
}

// Dropped reports how many rows have been discarded since the last hourly
// report tick.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Run consumes the queues until ctx is cancelled, then drains what is left.
func (r *Recorder) Run(ctx context.Context) {
	log.Println("Starting audit trail recorder...")

	reportTicker := time.NewTicker(reportInterval)
	defer reportTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.drain()
			log.Println("Stopping audit trail recorder...")
			return
		case <-reportTicker.C:
			if n := r.dropped.Swap(0); n > 0 {
				log.Printf("[Trail] Dropped %d trail rows under load", n)
			}
		case ev := <-r.events:
			r.write(func(wctx context.Context) { r.sink.AppendAudit(wctx, ev) })
		case m := <-r.metrics:
			r.write(func(wctx context.Context) { r.sink.AppendMetric(wctx, m) })
		}
	}
}

// write bounds each sink call so a stalled database cannot wedge the loop.
func (r *Recorder) write(fn func(context.Context)) {
	wctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	fn(wctx)
}

// drain flushes whatever is still queued at shutdown.
func (r *Recorder) drain() {
	for {
		select {
		case ev := <-r.events:
			r.write(func(wctx context.Context) { r.sink.AppendAudit(wctx, ev) })
		case m := <-r.metrics:
			r.write(func(wctx context.Context) { r.sink.AppendMetric(wctx, m) })
		default:
			return
		}
	}
}
