package model

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"defaults", DefaultParams(), false},
		{"zero temperature", Params{Temperature: 0, MaxOutputTokens: 1}, false},
		{"max temperature", Params{Temperature: 1, MaxOutputTokens: 1}, false},
		{"temperature too high", Params{Temperature: 1.01, MaxOutputTokens: 1}, true},
		{"negative temperature", Params{Temperature: -0.5, MaxOutputTokens: 1}, true},
		{"zero tokens", Params{Temperature: 0.5}, true},
		{"negative tokens", Params{Temperature: 0.5, MaxOutputTokens: -3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", p.Temperature)
	}
	if p.MaxOutputTokens != 512 {
		t.Errorf("MaxOutputTokens = %d, want 512", p.MaxOutputTokens)
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleSystem, RoleUser, RoleAssistant} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("ai").Valid() {
		t.Error(`"ai" should not be valid`)
	}
}

func TestMockChatModel(t *testing.T) {
	ctx := context.Background()
	msgs := []Message{UserMessage("hi")}

	t.Run("returns responses in order then repeats last", func(t *testing.T) {
		m := &MockChatModel{Responses: []ChatOut{{Text: "one"}, {Text: "two"}}}
		want := []string{"one", "two", "two"}
		for i, w := range want {
			out, err := m.Chat(ctx, msgs)
			if err != nil {
				t.Fatalf("call %d: %v", i, err)
			}
			if out.Text != w {
				t.Errorf("call %d = %q, want %q", i, out.Text, w)
			}
		}
		if m.CallCount() != 3 {
			t.Errorf("CallCount = %d", m.CallCount())
		}
	})

	t.Run("records a copy of the messages", func(t *testing.T) {
		m := &MockChatModel{}
		in := []Message{UserMessage("original")}
		_, _ = m.Chat(ctx, in)
		in[0] = UserMessage("changed")
		if m.Calls[0][0].Content != "original" {
			t.Errorf("recorded call aliased caller slice: %q", m.Calls[0][0].Content)
		}
	})

	t.Run("error injection", func(t *testing.T) {
		boom := errors.New("boom")
		m := &MockChatModel{Err: boom}
		if _, err := m.Chat(ctx, msgs); !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if m.CallCount() != 1 {
			t.Error("failed call should still be recorded")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		m := &MockChatModel{}
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := m.Chat(cctx, msgs); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if m.CallCount() != 0 {
			t.Error("canceled call should not be recorded")
		}
	})

	t.Run("reset", func(t *testing.T) {
		m := &MockChatModel{Responses: []ChatOut{{Text: "a"}, {Text: "b"}}}
		_, _ = m.Chat(ctx, msgs)
		m.Reset()
		out, _ := m.Chat(ctx, msgs)
		if out.Text != "a" || m.CallCount() != 1 {
			t.Errorf("after Reset got %q with %d calls", out.Text, m.CallCount())
		}
	})

	t.Run("concurrent use", func(t *testing.T) {
		m := &MockChatModel{Responses: []ChatOut{{Text: "x"}}}
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = m.Chat(ctx, msgs)
			}()
		}
		wg.Wait()
		if m.CallCount() != 20 {
			t.Errorf("CallCount = %d, want 20", m.CallCount())
		}
	})
}
