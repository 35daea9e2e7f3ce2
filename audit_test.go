package gymgate

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	seen    []AuditEvent
}

func (s *blockingSink) Emit(_ context.Context, event AuditEvent) {
	<-s.release
	s.mu.Lock()
	s.seen = append(s.seen, event)
	s.mu.Unlock()
}

func (s *blockingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{}, NoOpSink{})
	if d != nil {
		t.Fatal("disabled config must not start a dispatcher")
	}

	// Nil receivers are safe.
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogin})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherFillsIDAndTimestamp(t *testing.T) {
	sink := NewChannelSink(4)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)
	defer d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: AuditLogin})

	select {
	case event := <-sink.Events():
		if event.ID == "" {
			t.Fatal("event ID not filled")
		}
		if event.Timestamp.IsZero() {
			t.Fatal("event timestamp not filled")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event occupies the dispatcher goroutine, one fills the buffer;
	// the rest must be dropped without blocking.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditLogin})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops under backpressure")
	}

	close(sink.release)
	d.Close()
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	close(sink.release)

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 64}, sink)
	for i := 0; i < 16; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})
	}
	d.Close()

	if got := sink.count(); got != 16 {
		t.Fatalf("delivered %d events, want 16", got)
	}

	// Emit after close is a silent no-op.
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogin})
	if got := sink.count(); got != 16 {
		t.Fatalf("event delivered after close: %d", got)
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{EventType: AuditLogin, Email: "a@b.c", Success: true})
	sink.Emit(context.Background(), AuditEvent{EventType: AuditLogout, Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}

	var first AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line not valid JSON: %v", err)
	}
	if first.EventType != AuditLogin || first.Email != "a@b.c" {
		t.Fatalf("first event = %+v", first)
	}
}
