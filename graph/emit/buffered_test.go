package emit

import (
	"sync"
	"testing"
)

func TestBufferedEmitter_History(t *testing.T) {
	b := NewBufferedEmitter()
	b.Emit(Event{RunID: "r1", Msg: "invoke_start"})
	b.Emit(Event{RunID: "r2", Msg: "invoke_start"})
	b.Emit(Event{RunID: "r1", Step: 1, NodeID: "mock", Msg: "node_start"})
	b.Emit(Event{RunID: "r1", Step: 1, NodeID: "mock", Msg: "node_end"})

	t.Run("events in emission order", func(t *testing.T) {
		got := b.History("r1")
		want := []string{"invoke_start", "node_start", "node_end"}
		if len(got) != len(want) {
			t.Fatalf("expected %d events, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i].Msg != want[i] {
				t.Errorf("event %d = %q, want %q", i, got[i].Msg, want[i])
			}
		}
	})

	t.Run("unknown run is empty not nil", func(t *testing.T) {
		got := b.History("missing")
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty slice, got %#v", got)
		}
	})

	t.Run("filter by node and msg", func(t *testing.T) {
		got := b.Filter("r1", HistoryFilter{NodeID: "mock", Msg: "node_end"})
		if len(got) != 1 || got[0].Msg != "node_end" {
			t.Errorf("unexpected filter result: %#v", got)
		}
	})

	t.Run("runs in first-seen order", func(t *testing.T) {
		runs := b.Runs()
		if len(runs) != 2 || runs[0] != "r1" || runs[1] != "r2" {
			t.Errorf("Runs() = %v", runs)
		}
	})

	t.Run("clear single run", func(t *testing.T) {
		b.Clear("r2")
		if len(b.History("r2")) != 0 {
			t.Error("expected r2 cleared")
		}
		if len(b.Runs()) != 1 {
			t.Errorf("Runs() = %v", b.Runs())
		}
	})

	t.Run("clear all", func(t *testing.T) {
		b.Clear("")
		if len(b.History("r1")) != 0 || len(b.Runs()) != 0 {
			t.Error("expected all events cleared")
		}
	})
}

func TestBufferedEmitter_Concurrent(t *testing.T) {
	b := NewBufferedEmitter()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Emit(Event{RunID: "shared", Msg: "node_end"})
		}()
	}
	wg.Wait()

	if got := len(b.History("shared")); got != 50 {
		t.Errorf("expected 50 events, got %d", got)
	}
}

func TestMultiEmitter(t *testing.T) {
	a, c := NewBufferedEmitter(), NewBufferedEmitter()
	m := NewMultiEmitter(a, nil, NewNullEmitter(), c)

	if len(m) != 3 {
		t.Fatalf("expected nil emitter dropped, got %d emitters", len(m))
	}

	m.Emit(Event{RunID: "r", Msg: "invoke_start"})

	if len(a.History("r")) != 1 || len(c.History("r")) != 1 {
		t.Error("expected event delivered to every emitter")
	}
}
