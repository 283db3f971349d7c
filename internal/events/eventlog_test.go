package events

import (
	"sync"
	"testing"
)

type recordingPersister struct {
	mu     sync.Mutex
	stored []SystemEvent
	done   chan struct{}
}

func (p *recordingPersister) Append(event SystemEvent) error {
	p.mu.Lock()
	p.stored = append(p.stored, event)
	p.mu.Unlock()
	p.done <- struct{}{}
	return nil
}

func TestAppendAssignsIdentityAndTimestamp(t *testing.T) {
	el := NewEventLog(nil)
	el.Append(SystemEvent{Type: EventTypeLevelUp, PlayerID: "a@b.c"})

	got := el.Replay()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].ID == "" {
		t.Error("expected generated event ID")
	}
	if got[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestAppendWritesThroughToPersister(t *testing.T) {
	p := &recordingPersister{done: make(chan struct{}, 1)}
	el := NewEventLog(p)

	el.Append(SystemEvent{Type: EventTypeQuestCompleted, PlayerID: "a@b.c"})
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.stored) != 1 || p.stored[0].Type != EventTypeQuestCompleted {
		t.Fatalf("persister got %v", p.stored)
	}
}

func TestSubscribeReceivesLaterAppends(t *testing.T) {
	el := NewEventLog(nil)
	el.Append(SystemEvent{Type: EventTypeSessionLogin, PlayerID: "a@b.c"})

	ch := el.Subscribe(4)
	el.Append(SystemEvent{Type: EventTypeLevelUp, PlayerID: "a@b.c"})

	got := <-ch
	if got.Type != EventTypeLevelUp {
		t.Errorf("expected LEVEL_UP, got %s", got.Type)
	}

	select {
	case extra := <-ch:
		t.Errorf("unexpected extra event %s", extra.Type)
	default:
	}
}

func TestSubscribeDropsWhenBufferFull(t *testing.T) {
	el := NewEventLog(nil)
	ch := el.Subscribe(1)

	el.Append(SystemEvent{Type: EventTypeLevelUp})
	el.Append(SystemEvent{Type: EventTypeRankChanged})

	got := <-ch
	if got.Type != EventTypeLevelUp {
		t.Errorf("expected first event, got %s", got.Type)
	}
	select {
	case e := <-ch:
		t.Errorf("second append should have been dropped, got %s", e.Type)
	default:
	}
}

func TestQueriesFilterByPlayerAndDate(t *testing.T) {
	el := NewEventLog(nil)
	el.Append(SystemEvent{Type: EventTypeLevelUp, PlayerID: "a@b.c", Date: "2026-09-01"})
	el.Append(SystemEvent{Type: EventTypeLevelUp, PlayerID: "x@y.z", Date: "2026-09-01"})
	el.Append(SystemEvent{Type: EventTypeRankChanged, PlayerID: "a@b.c", Date: "2026-09-02"})

	if got := el.GetByPlayer("a@b.c"); len(got) != 2 {
		t.Errorf("expected 2 events for player, got %d", len(got))
	}
	if got := el.GetByDate("2026-09-01"); len(got) != 2 {
		t.Errorf("expected 2 events for date, got %d", len(got))
	}
}
