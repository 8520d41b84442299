package services

import (
	"context"
	"errors"
	"sync"

	"terroir/internal/genai"
	"terroir/internal/model"
)

// fakeGenAI is a scripted genai.Client. Replies are consumed in order;
// when the script runs out, errScript (or a generic error) is returned.
type fakeGenAI struct {
	mu sync.Mutex

	replies   []*genai.Reply
	errScript []error

	// histories records the conversation passed to each
	// GenerateWithTools call.
	histories [][]genai.Content
	prompts   []string
}

func (f *fakeGenAI) next() (*genai.Reply, error) {
	if len(f.errScript) > 0 {
		err := f.errScript[0]
		f.errScript = f.errScript[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(f.replies) == 0 {
		return nil, errors.New("fake genai: script exhausted")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeGenAI) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	r, err := f.next()
	if err != nil {
		return "", err
	}
	return r.Text, nil
}

func (f *fakeGenAI) GenerateWithSearch(ctx context.Context, prompt string) (*genai.GroundedText, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	r, err := f.next()
	if err != nil {
		return nil, err
	}
	return &genai.GroundedText{Text: r.Text}, nil
}

func (f *fakeGenAI) GenerateWithTools(ctx context.Context, systemInstruction string, history []genai.Content, decls []genai.FunctionDeclaration) (*genai.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histories = append(f.histories, history)
	return f.next()
}

// fakeWineSearch is a canned WineSearchService that records every call.
type fakeWineSearch struct {
	mu sync.Mutex

	// responses maps winery name to the canned response; missing names
	// get an empty response, mimicking a failed external call.
	responses map[string]model.WineSearchResponse

	calls []wineSearchCall
}

type wineSearchCall struct {
	WineryName  string
	ShopURL     string
	VarietyHint string
}

func (f *fakeWineSearch) SearchWines(ctx context.Context, wineryName, shopURL, varietyHint string) model.WineSearchResponse {
	f.mu.Lock()
	f.calls = append(f.calls, wineSearchCall{wineryName, shopURL, varietyHint})
	f.mu.Unlock()

	if resp, ok := f.responses[wineryName]; ok {
		return resp
	}
	return model.WineSearchResponse{Wines: []model.WineListing{}, Sources: []model.SourceCitation{}}
}

func (f *fakeWineSearch) Describe(ctx context.Context, wineryName string, features []string) string {
	return "canned description"
}

func (f *fakeWineSearch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
