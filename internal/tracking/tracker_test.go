package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/storage"
)

type mockRecorder struct {
	mu      sync.Mutex
	records []storage.RecommendationRecord
	err     error
}

func (m *mockRecorder) RecordRecommendation(_ context.Context, rec storage.RecommendationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func event(chat int64) Event {
	return Event{
		ChatID: chat,
		Recommendation: applicant.Recommendation{
			FacultyCode: "ФИТ",
			Source:      applicant.SourceClassifier,
			Confidence:  0.8,
		},
	}
}

func TestTracker_Track(t *testing.T) {
	rec := &mockRecorder{}
	tracker := NewTracker(rec)
	defer tracker.Stop()

	tracker.Track(event(1))

	// Give time for background processing
	time.Sleep(200 * time.Millisecond)

	if rec.count() != 1 {
		t.Fatalf("expected 1 record, got %d", rec.count())
	}
	got := rec.records[0]
	if got.ChatHash != storage.HashChat(1) {
		t.Error("expected chat id to be hashed")
	}
	if got.Source != "classifier" || got.FacultyCode != "ФИТ" {
		t.Errorf("unexpected record %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected timestamp to be filled in")
	}
}

func TestTracker_StopFlushes(t *testing.T) {
	rec := &mockRecorder{}
	tracker := NewTracker(rec)

	for i := 0; i < 25; i++ {
		tracker.Track(event(int64(i)))
	}
	tracker.Stop()

	if rec.count() != 25 {
		t.Errorf("expected 25 records after Stop, got %d", rec.count())
	}
}

func TestTracker_TrackAfterStop(t *testing.T) {
	rec := &mockRecorder{}
	tracker := NewTracker(rec)
	tracker.Stop()
	tracker.Stop()

	tracker.Track(event(1))
	if tracker.QueueSize() != 0 {
		t.Error("events must be ignored after Stop")
	}
}

func TestTracker_RecorderErrors(t *testing.T) {
	rec := &mockRecorder{err: errors.New("db down")}
	tracker := NewTracker(rec)

	tracker.Track(event(1))
	tracker.Stop()

	if rec.count() != 0 {
		t.Error("expected no records on failing recorder")
	}
}
