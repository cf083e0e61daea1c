package workflow

import (
	"context"
	"testing"
)

func TestRunCaseloadChatAccumulatesHistoryAcrossTurns(t *testing.T) {
	engine, _, _ := newTestEngine(t, "reply text")

	first, err := engine.RunCaseloadChat(context.Background(), "client-1", "What cases need attention?")
	if err != nil {
		t.Fatalf("unexpected error on first turn: %v", err)
	}
	if first != "reply text" {
		t.Fatalf("unexpected first reply: %q", first)
	}

	engine.chatMu.Lock()
	historyAfterFirst := len(engine.chatHistory["client-1"])
	engine.chatMu.Unlock()
	if historyAfterFirst != 2 {
		t.Fatalf("expected 2 history entries after first turn, got %d", historyAfterFirst)
	}

	if _, err := engine.RunCaseloadChat(context.Background(), "client-1", "Anything else?"); err != nil {
		t.Fatalf("unexpected error on second turn: %v", err)
	}

	engine.chatMu.Lock()
	historyAfterSecond := len(engine.chatHistory["client-1"])
	engine.chatMu.Unlock()
	if historyAfterSecond != 4 {
		t.Fatalf("expected 4 history entries after second turn, got %d", historyAfterSecond)
	}
}

func TestClearChatResetsHistory(t *testing.T) {
	engine, _, _ := newTestEngine(t, "reply text")

	if _, err := engine.RunCaseloadChat(context.Background(), "client-1", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	engine.ClearChat("client-1")

	engine.chatMu.Lock()
	_, ok := engine.chatHistory["client-1"]
	engine.chatMu.Unlock()
	if ok {
		t.Fatalf("expected history to be cleared for client-1")
	}
}
