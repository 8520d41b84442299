package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"terroir/internal/config"
	"terroir/internal/genai"
)

func TestSearchWines_ParsesGroundedReply(t *testing.T) {
	client := &fakeGenAI{replies: []*genai.Reply{{
		Kind: genai.ReplyText,
		Text: "2023 Estate Shiraz | $42.00 | https://clonakilla.com.au/product/shiraz\n2024 Riesling | Price N/A | not-a-url",
	}}}
	svc := NewWineSearchService(nil, client)

	resp := svc.SearchWines(context.Background(), "Clonakilla", "https://clonakilla.com.au/shop", "")

	if len(resp.Wines) != 2 {
		t.Fatalf("want 2 wines, got %d", len(resp.Wines))
	}
	if resp.Wines[0].Link != "https://clonakilla.com.au/product/shiraz" {
		t.Fatalf("valid link must pass through, got %q", resp.Wines[0].Link)
	}
	if resp.Wines[1].Link != "https://clonakilla.com.au/shop" {
		t.Fatalf("bad link must fall back to the shop page, got %q", resp.Wines[1].Link)
	}
}

func TestSearchWines_PromptShape(t *testing.T) {
	client := &fakeGenAI{replies: []*genai.Reply{{Kind: genai.ReplyText, Text: ""}}}
	cfg := &config.Config{}
	cfg.Search.ListingLimit = 8
	svc := NewWineSearchService(cfg, client)

	svc.SearchWines(context.Background(), "Helm Wines", "", "Riesling")

	client.mu.Lock()
	defer client.mu.Unlock()
	prompt := client.prompts[0]
	for _, want := range []string{
		"Find 8 current wines",
		"Helm Wines",
		"Only include Riesling wines.",
		"URL SAFETY RULES",
		"Wine Name | Price | URL",
		"https://www.google.com/search?q=Helm+Wines+wines+buy",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSearchWines_TransportFailureIsEmptyNotError(t *testing.T) {
	client := &fakeGenAI{errScript: []error{errors.New("timeout")}}
	svc := NewWineSearchService(nil, client)

	resp := svc.SearchWines(context.Background(), "Clonakilla", "", "")

	if resp.Wines == nil || resp.Sources == nil {
		t.Fatalf("failure must yield non-nil empty slices: %+v", resp)
	}
	if len(resp.Wines) != 0 {
		t.Fatalf("want no wines, got %d", len(resp.Wines))
	}
}

func TestFallbackShopURL(t *testing.T) {
	if got := FallbackShopURL("Helm Wines", "https://helm.test/shop"); got != "https://helm.test/shop" {
		t.Fatalf("known shop URL must win, got %q", got)
	}
	want := "https://www.google.com/search?q=Helm+Wines+wines+buy"
	if got := FallbackShopURL("Helm Wines", ""); got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestDescribe(t *testing.T) {
	client := &fakeGenAI{replies: []*genai.Reply{{Kind: genai.ReplyText, Text: "A gem of Murrumbateman."}}}
	svc := NewWineSearchService(nil, client)

	if got := svc.Describe(context.Background(), "Clonakilla", []string{"Shiraz Viognier", "cellar door"}); got != "A gem of Murrumbateman." {
		t.Fatalf("unexpected description: %q", got)
	}

	client.mu.Lock()
	prompt := client.prompts[0]
	client.mu.Unlock()
	if !strings.Contains(prompt, "Shiraz Viognier, cellar door") {
		t.Fatalf("features not joined into prompt: %q", prompt)
	}
}

func TestDescribe_FallbackOnFailureOrBlank(t *testing.T) {
	client := &fakeGenAI{errScript: []error{errors.New("down")}, replies: []*genai.Reply{{Kind: genai.ReplyText, Text: "  \n"}}}
	svc := NewWineSearchService(nil, client)

	if got := svc.Describe(context.Background(), "Helm Wines", nil); got != regionalFallbackDescription {
		t.Fatalf("want regional fallback after error, got %q", got)
	}
	if got := svc.Describe(context.Background(), "Helm Wines", nil); got != regionalFallbackDescription {
		t.Fatalf("want regional fallback for blank text, got %q", got)
	}
}
