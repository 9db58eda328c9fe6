// Package tracking records produced recommendations in the background so
// that the dialogue never waits on the database.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/logging"
	"github.com/tusur-bots/faculty-advisor/internal/metrics"
	"github.com/tusur-bots/faculty-advisor/internal/storage"
)

const (
	// eventQueueSize is the buffer size for the event queue.
	// If full, events are dropped (non-blocking).
	eventQueueSize = 1000

	// batchFlushSize is the number of events that triggers an immediate flush.
	batchFlushSize = 10

	// flushInterval is how often pending events are written.
	flushInterval = 50 * time.Millisecond

	// writeTimeout bounds a single database write.
	writeTimeout = 5 * time.Second
)

// Event is one recommendation shown to a chat.
type Event struct {
	ChatID         int64
	Recommendation applicant.Recommendation
	Timestamp      time.Time
}

// Recorder persists recommendation records.
type Recorder interface {
	RecordRecommendation(ctx context.Context, rec storage.RecommendationRecord) error
}

// Tracker queues events and writes them in batches.
type Tracker struct {
	recorder   Recorder
	eventQueue chan Event
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewTracker starts a tracker writing to r.
func NewTracker(r Recorder) *Tracker {
	t := &Tracker{
		recorder:   r,
		eventQueue: make(chan Event, eventQueueSize),
		stopChan:   make(chan struct{}),
	}

	t.wg.Add(1)
	go t.processEvents()

	return t
}

// Track queues an event without blocking. When the queue is full the event
// is dropped.
func (t *Tracker) Track(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	select {
	case <-t.stopChan:
		return
	default:
	}

	select {
	case t.eventQueue <- ev:
	default:
		metrics.TrackerDropped.Inc()
		logging.Warn().Str("faculty", ev.Recommendation.FacultyCode).Msg("tracking queue full, dropping event")
	}
}

// Stop flushes queued events and stops the background writer.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
		t.wg.Wait()
	})
}

// QueueSize returns the number of events waiting to be written.
func (t *Tracker) QueueSize() int {
	return len(t.eventQueue)
}

func (t *Tracker) processEvents() {
	defer t.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, batchFlushSize)

	for {
		select {
		case ev := <-t.eventQueue:
			batch = append(batch, ev)
			if len(batch) >= batchFlushSize {
				t.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				t.flush(batch)
				batch = batch[:0]
			}

		case <-t.stopChan:
			// Drain what is already queued, then exit.
			for {
				select {
				case ev := <-t.eventQueue:
					batch = append(batch, ev)
				default:
					t.flush(batch)
					return
				}
			}
		}
	}
}

func (t *Tracker) flush(events []Event) {
	for _, ev := range events {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := t.recorder.RecordRecommendation(ctx, storage.RecommendationRecord{
			ChatHash:    storage.HashChat(ev.ChatID),
			FacultyCode: ev.Recommendation.FacultyCode,
			Source:      string(ev.Recommendation.Source),
			Confidence:  ev.Recommendation.Confidence,
			CreatedAt:   ev.Timestamp,
		})
		cancel()
		if err != nil {
			logging.Warn().Err(err).Msg("failed to record recommendation")
		}
	}
}
