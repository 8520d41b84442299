package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"terroir/internal/config"
	"terroir/internal/genai"
	"terroir/internal/model"
)

func newTestSession(t *testing.T, client *fakeGenAI, fake *fakeWineSearch) *ChatSession {
	t.Helper()
	cfg := &config.Config{}
	cfg.Search.MaxWineries = 3
	sel := NewCandidateSelector(testDataset(t), rand.New(rand.NewSource(21)))
	agg := NewAggregator(cfg, sel, fake)

	m := NewChatManager(cfg, client, agg)
	s, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return s
}

func TestChat_PlainTextTurn(t *testing.T) {
	client := &fakeGenAI{replies: []*genai.Reply{
		{Kind: genai.ReplyText, Text: "The region is known for cool-climate Shiraz."},
	}}
	s := newTestSession(t, client, &fakeWineSearch{})

	answer := s.SendMessage(context.Background(), "Tell me about the region.")

	if answer != "The region is known for cool-climate Shiraz." {
		t.Fatalf("unexpected answer: %q", answer)
	}

	tr := s.Transcript()
	if len(tr) != 2 {
		t.Fatalf("want 2 transcript entries, got %d", len(tr))
	}
	if tr[0].Role != "user" || tr[0].Text != "Tell me about the region." {
		t.Fatalf("bad user entry: %+v", tr[0])
	}
	if tr[1].Role != "model" || tr[1].Text != answer {
		t.Fatalf("bad model entry: %+v", tr[1])
	}
}

func TestChat_ToolCallRoundTrip(t *testing.T) {
	client := &fakeGenAI{replies: []*genai.Reply{
		{Kind: genai.ReplyToolCall, Call: &genai.FunctionCall{
			Name: searchToolName,
			Args: map[string]any{"variety": "Riesling"},
		}},
		{Kind: genai.ReplyText, Text: "Clonakilla has a lovely Riesling at $35."},
	}}
	fake := &fakeWineSearch{responses: map[string]model.WineSearchResponse{}}
	for _, w := range testDataset(t).All() {
		fake.responses[w.Name] = model.WineSearchResponse{
			Wines:   []model.WineListing{{Name: w.Name + " Riesling", Price: "$35.00", Link: w.Website}},
			Sources: []model.SourceCitation{},
		}
	}
	s := newTestSession(t, client, fake)

	answer := s.SendMessage(context.Background(), "Find me a Riesling")

	if answer != "Clonakilla has a lovely Riesling at $35." {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if fake.callCount() == 0 {
		t.Fatalf("the search tool should have run")
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.histories) != 2 {
		t.Fatalf("want 2 model calls, got %d", len(client.histories))
	}
	second := client.histories[1]
	// user turn, model functionCall turn, tool response.
	if len(second) != 3 {
		t.Fatalf("want 3 turns in the follow-up call, got %d", len(second))
	}
	if second[1].Role != "model" || second[1].Parts[0].FunctionCall == nil {
		t.Fatalf("second turn should carry the model's function call: %+v", second[1])
	}
	fr := second[2].Parts[0].FunctionResponse
	if fr == nil || fr.Name != searchToolName {
		t.Fatalf("third turn should be the tool response: %+v", second[2])
	}
	found, ok := fr.Response["foundWines"].(map[string]any)
	if !ok {
		t.Fatalf("tool response missing foundWines: %+v", fr.Response)
	}
	if _, ok := found["searchedWineries"]; !ok {
		t.Fatalf("expected searchedWineries in tool response: %+v", found)
	}
}

func TestChat_TransportFailureApologizesWithoutCommitting(t *testing.T) {
	client := &fakeGenAI{errScript: []error{errors.New("connection reset")}}
	s := newTestSession(t, client, &fakeWineSearch{})

	if got := s.SendMessage(context.Background(), "hello"); got != chatApology {
		t.Fatalf("want apology, got %q", got)
	}
	if tr := s.Transcript(); len(tr) != 0 {
		t.Fatalf("failed turn must not be committed, got %d entries", len(tr))
	}

	// The next turn starts from a clean history.
	client.mu.Lock()
	client.replies = []*genai.Reply{{Kind: genai.ReplyText, Text: "Welcome back."}}
	client.mu.Unlock()

	if got := s.SendMessage(context.Background(), "hello again"); got != "Welcome back." {
		t.Fatalf("unexpected answer: %q", got)
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	last := client.histories[len(client.histories)-1]
	if len(last) != 1 {
		t.Fatalf("retry should not carry the failed turn, got %d turns", len(last))
	}
}

func TestChat_EmptySummaryFallsBack(t *testing.T) {
	client := &fakeGenAI{replies: []*genai.Reply{
		{Kind: genai.ReplyToolCall, Call: &genai.FunctionCall{
			Name: searchToolName,
			Args: map[string]any{"variety": "Shiraz"},
		}},
		{Kind: genai.ReplyText, Text: "   "},
	}}
	s := newTestSession(t, client, &fakeWineSearch{})

	if got := s.SendMessage(context.Background(), "any shiraz?"); got != chatSummaryFallback {
		t.Fatalf("want summary fallback, got %q", got)
	}
}

func TestChat_HistoryGrowsAcrossTurns(t *testing.T) {
	client := &fakeGenAI{replies: []*genai.Reply{
		{Kind: genai.ReplyText, Text: "first"},
		{Kind: genai.ReplyText, Text: "second"},
	}}
	s := newTestSession(t, client, &fakeWineSearch{})

	s.SendMessage(context.Background(), "one")
	s.SendMessage(context.Background(), "two")

	client.mu.Lock()
	defer client.mu.Unlock()
	second := client.histories[1]
	// user, model, user.
	if len(second) != 3 {
		t.Fatalf("want 3 turns in second call, got %d", len(second))
	}
	if second[0].Parts[0].Text != "one" || second[1].Parts[0].Text != "first" || second[2].Parts[0].Text != "two" {
		t.Fatalf("history out of order: %+v", second)
	}
}

func TestChatManager_SessionLimitAndLifecycle(t *testing.T) {
	cfg := &config.Config{}
	cfg.Chat.MaxSessions = 2
	ds := testDataset(t)
	sel := NewCandidateSelector(ds, rand.New(rand.NewSource(5)))
	agg := NewAggregator(cfg, sel, &fakeWineSearch{})
	m := NewChatManager(cfg, &fakeGenAI{}, agg)

	a, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(); err == nil {
		t.Fatalf("third session should exceed the limit")
	}

	if got, ok := m.Get(a.ID); !ok || got != a {
		t.Fatalf("Get should return the live session")
	}
	m.Delete(a.ID)
	if _, ok := m.Get(a.ID); ok {
		t.Fatalf("deleted session should be gone")
	}
	if _, err := m.Create(); err != nil {
		t.Fatalf("limit should free up after Delete: %v", err)
	}
}
