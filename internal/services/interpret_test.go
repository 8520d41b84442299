package services

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"terroir/internal/config"
	"terroir/internal/genai"
)

func newTestInterpreter(t *testing.T, client *fakeGenAI, fake *fakeWineSearch) *QueryInterpreter {
	t.Helper()
	ds := testDataset(t)
	cfg := &config.Config{}
	cfg.Search.MaxWineries = 3
	sel := NewCandidateSelector(ds, rand.New(rand.NewSource(11)))
	agg := NewAggregator(cfg, sel, fake)
	return NewQueryInterpreter(client, ds, agg)
}

func TestInterpret_ToolCallDrivesAggregator(t *testing.T) {
	client := &fakeGenAI{replies: []*genai.Reply{{
		Kind: genai.ReplyToolCall,
		Call: &genai.FunctionCall{
			Name: "find_wines_by_criteria",
			Args: map[string]any{"variety": "Riesling", "maxPrice": 40.0, "district": "Hall"},
		},
	}}}
	fake := &fakeWineSearch{}

	res := newTestInterpreter(t, client, fake).Interpret(context.Background(), "Riesling under $40 around Hall")

	if len(res.SearchedWineries) == 0 {
		t.Fatalf("expected the aggregator to run")
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	for _, call := range fake.calls {
		if call.VarietyHint != "Riesling" {
			t.Fatalf("expected Riesling searches, got %+v", call)
		}
	}
}

func TestInterpret_PlainTextReplyFallsBackToKeywords(t *testing.T) {
	client := &fakeGenAI{replies: []*genai.Reply{{Kind: genai.ReplyText, Text: "I am not sure what you mean."}}}
	fake := &fakeWineSearch{}

	res := newTestInterpreter(t, client, fake).Interpret(context.Background(), "any shiraz wine under $40?")

	if len(res.SearchedWineries) == 0 {
		t.Fatalf("keyword fallback should have found Shiraz")
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	for _, call := range fake.calls {
		if !strings.EqualFold(call.VarietyHint, "shiraz") {
			t.Fatalf("expected shiraz searches, got %+v", call)
		}
	}
}

func TestInterpret_TransportFailureFallsBackToKeywords(t *testing.T) {
	client := &fakeGenAI{errScript: []error{errors.New("service unavailable")}}
	fake := &fakeWineSearch{}

	res := newTestInterpreter(t, client, fake).Interpret(context.Background(), "riesling below 30")

	if len(res.SearchedWineries) == 0 {
		t.Fatalf("expected keyword fallback after transport failure")
	}
}

func TestInterpret_UninterpretableQueryIsEmptyNotError(t *testing.T) {
	client := &fakeGenAI{replies: []*genai.Reply{{Kind: genai.ReplyText, Text: "no idea"}}}
	fake := &fakeWineSearch{}

	res := newTestInterpreter(t, client, fake).Interpret(context.Background(), "something nice for dinner")

	if len(res.SearchedWineries) != 0 || len(res.Matches) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if res.SearchedWineries == nil || res.Matches == nil {
		t.Fatalf("empty result must use non-nil slices")
	}
	if fake.callCount() != 0 {
		t.Fatalf("no searches should run for an uninterpretable query")
	}
}

func TestInterpret_ToolCallWithoutVarietyFallsBack(t *testing.T) {
	client := &fakeGenAI{replies: []*genai.Reply{{
		Kind: genai.ReplyToolCall,
		Call: &genai.FunctionCall{Name: "find_wines_by_criteria", Args: map[string]any{"maxPrice": 40.0}},
	}}}
	fake := &fakeWineSearch{}

	res := newTestInterpreter(t, client, fake).Interpret(context.Background(), "sangiovese picks")

	if len(res.SearchedWineries) == 0 {
		t.Fatalf("expected keyword fallback when the call lacks a variety")
	}
}

func TestDecodeSearchArgs(t *testing.T) {
	args, ok := decodeSearchArgs(map[string]any{"variety": "Shiraz", "maxPrice": 42.5, "district": "Hall"})
	if !ok {
		t.Fatalf("expected valid args")
	}
	if args.Variety != "Shiraz" || args.District != "Hall" || args.MaxPrice == nil || *args.MaxPrice != 42.5 {
		t.Fatalf("unexpected decode: %+v", args)
	}

	if _, ok := decodeSearchArgs(map[string]any{"maxPrice": 10.0}); ok {
		t.Fatalf("variety is required")
	}
	if _, ok := decodeSearchArgs(map[string]any{"variety": "  "}); ok {
		t.Fatalf("blank variety must be rejected")
	}
}
