package tracking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"aadinath/api/metrics"
	"aadinath/api/models"
)

const (
	// writeBatchSize is the maximum number of rows per store append.
	writeBatchSize = 500

	// flushTimeout bounds each flush against the event store.
	flushTimeout = 5 * time.Second
)

// Sink persists captured events in batches.
type Sink interface {
	AppendPageViews(ctx context.Context, events []models.PageViewEvent) error
	AppendScans(ctx context.Context, events []models.ScanEvent) error
	AppendEngagements(ctx context.Context, events []models.EngagementEvent) error
}

// envelope carries exactly one captured event.
type envelope struct {
	pageView   *models.PageViewEvent
	scan       *models.ScanEvent
	engagement *models.EngagementEvent
}

func (e envelope) kind() string {
	switch {
	case e.pageView != nil:
		return metrics.KindPageView
	case e.scan != nil:
		return metrics.KindScan
	default:
		return metrics.KindEngagement
	}
}

// Buffer is a channel-based event buffer for non-blocking capture. mu makes
// the closed check and the enqueue one step, so nothing lands after Close.
type Buffer struct {
	events chan envelope
	closed chan struct{}

	mu       sync.RWMutex
	isClosed bool
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		events: make(chan envelope, capacity),
		closed: make(chan struct{}),
	}
}

// send returns false when the buffer is full or closed.
func (b *Buffer) send(e envelope) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.isClosed {
		return false
	}

	select {
	case b.events <- e:
		metrics.CaptureBufferDepth.Set(float64(len(b.events)))
		return true
	default:
		return false
	}
}

func (b *Buffer) Len() int {
	return len(b.events)
}

// Close stops the buffer from accepting events. It waits for in-flight sends,
// so every accepted event is queued before the writer drains. Safe to call
// more than once.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClosed {
		return
	}
	b.isClosed = true
	close(b.closed)
}

// Writer drains a Buffer into a Sink on a ticker or when the batch is full.
type Writer struct {
	sink           Sink
	buffer         *Buffer
	log            *zap.SugaredLogger
	flushInterval  time.Duration
	flushThreshold int
	wg             sync.WaitGroup
}

func NewWriter(sink Sink, buffer *Buffer, log *zap.SugaredLogger, flushInterval time.Duration, flushThreshold int) *Writer {
	return &Writer{
		sink:           sink,
		buffer:         buffer,
		log:            log,
		flushInterval:  flushInterval,
		flushThreshold: flushThreshold,
	}
}

func (w *Writer) Start() {
	w.wg.Add(1)
	go w.flushLoop()
}

// Stop closes the buffer, flushes what is left and waits for the loop to exit.
func (w *Writer) Stop() {
	w.buffer.Close()
	w.wg.Wait()
}

func (w *Writer) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	batch := make([]envelope, 0, w.flushThreshold)

	for {
		select {
		case e := <-w.buffer.events:
			batch = append(batch, e)
			if len(batch) >= w.flushThreshold {
				w.flush(batch)
				batch = make([]envelope, 0, w.flushThreshold)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = make([]envelope, 0, w.flushThreshold)
			}

		case <-w.buffer.closed:
			w.drain(&batch)
			if len(batch) > 0 {
				w.flush(batch)
			}
			return
		}
	}
}

func (w *Writer) drain(batch *[]envelope) {
	for {
		select {
		case e := <-w.buffer.events:
			*batch = append(*batch, e)
		default:
			return
		}
	}
}

// flush splits the batch per kind and appends each kind in chunks. Failures
// are logged and counted, never returned.
func (w *Writer) flush(batch []envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	var (
		views       []models.PageViewEvent
		scans       []models.ScanEvent
		engagements []models.EngagementEvent
	)
	for _, e := range batch {
		switch {
		case e.pageView != nil:
			views = append(views, *e.pageView)
		case e.scan != nil:
			scans = append(scans, *e.scan)
		case e.engagement != nil:
			engagements = append(engagements, *e.engagement)
		}
	}

	writeChunks(ctx, w, metrics.KindPageView, views, w.sink.AppendPageViews)
	writeChunks(ctx, w, metrics.KindScan, scans, w.sink.AppendScans)
	writeChunks(ctx, w, metrics.KindEngagement, engagements, w.sink.AppendEngagements)

	metrics.CaptureBufferDepth.Set(float64(w.buffer.Len()))
	w.log.Debugf("Flushed %d captured events", len(batch))
}

func writeChunks[T any](ctx context.Context, w *Writer, kind string, events []T, appendFn func(context.Context, []T) error) {
	for start := 0; start < len(events); start += writeBatchSize {
		end := min(start+writeBatchSize, len(events))
		if err := appendFn(ctx, events[start:end]); err != nil {
			metrics.EventWriteErrors.WithLabelValues(kind).Add(float64(end - start))
			w.log.Errorf("Failed to write %d %s events: %v", end-start, kind, err)
		}
	}
}
