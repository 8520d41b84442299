package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"terroir/internal/config"
	"terroir/internal/model"
)

// Client is the abstraction over the hosted generative-language
// service used by the search and chat services. Implementations must
// be safe for concurrent use; the aggregator fans out multiple
// GenerateWithSearch calls at once.
type Client interface {
	// Generate sends a single plain-text instruction and returns the
	// model's text reply.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateWithSearch sends an instruction with the integrated
	// web-search tool enabled and returns the reply text plus any
	// grounding citations the model attached.
	GenerateWithSearch(ctx context.Context, prompt string) (*GroundedText, error)

	// GenerateWithTools sends a conversation history with declared
	// callable functions and returns either free text or a function
	// call the caller is expected to execute.
	GenerateWithTools(ctx context.Context, systemInstruction string, history []Content, decls []FunctionDeclaration) (*Reply, error)
}

// GroundedText is the result of a search-grounded generation.
type GroundedText struct {
	Text    string
	Sources []model.SourceCitation
}

// ReplyKind discriminates the two shapes a tool-calling generation can
// return.
type ReplyKind int

const (
	ReplyText ReplyKind = iota
	ReplyToolCall
)

// Reply is the tagged result of GenerateWithTools: either plain text
// or a request to invoke a declared function.
type Reply struct {
	Kind ReplyKind
	Text string
	Call *FunctionCall
}

// FunctionCall is the model's structured request to invoke a declared
// function with the given argument map.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries a function's result back into the
// conversation as a dedicated turn.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
}

// FunctionDeclaration describes one callable function offered to the
// model.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Schema is the subset of the OpenAPI schema dialect the
// generateContent API accepts for function parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Content is one conversation turn: a role plus ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a single piece of a turn. Exactly one field is set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// UserText builds a single-part user turn.
func UserText(text string) Content {
	return Content{Role: "user", Parts: []Part{{Text: text}}}
}

// ModelText builds a single-part model turn.
func ModelText(text string) Content {
	return Content{Role: "model", Parts: []Part{{Text: text}}}
}

// ToolResult builds the function-response turn that feeds an executed
// call's result back to the model.
func ToolResult(name string, response map[string]any) Content {
	return Content{
		Role:  "user",
		Parts: []Part{{FunctionResponse: &FunctionResponse{Name: name, Response: response}}},
	}
}

// tool mirrors the API's tool union: either the built-in google search
// capability or a set of function declarations.
type tool struct {
	GoogleSearch         *struct{}             `json:"googleSearch,omitempty"`
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

type generationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

type generateContentRequest struct {
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Contents          []Content         `json:"contents"`
	Tools             []tool            `json:"tools,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content           Content `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					Title string `json:"title"`
					URI   string `json:"uri"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// googleClient implements Client against the Generative Language API's
// generateContent endpoint.
type googleClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewClientFromConfig constructs a Client from global configuration.
func NewClientFromConfig(cfg *config.Config) (Client, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	gcfg := cfg.GenAI
	if gcfg.APIKey == "" || gcfg.Model == "" {
		return nil, errors.New("genai service is not fully configured")
	}

	timeout := 30 * time.Second
	if gcfg.TimeoutMs > 0 {
		timeout = time.Duration(gcfg.TimeoutMs) * time.Millisecond
	}

	base := strings.TrimRight(gcfg.BaseURL, "/")
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1beta"
	}

	return &googleClient{
		apiKey:  gcfg.APIKey,
		model:   gcfg.Model,
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *googleClient) generate(ctx context.Context, body generateContentRequest) (*generateContentResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generateContent failed with status %d", resp.StatusCode)
	}

	var parsed generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Candidates) == 0 {
		return nil, errors.New("generateContent returned no candidates")
	}

	return &parsed, nil
}

// candidateText concatenates all text parts of the first candidate.
func candidateText(resp *generateContentResponse) string {
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// candidateSources extracts web grounding citations from the first
// candidate, if the model attached any.
func candidateSources(resp *generateContentResponse) []model.SourceCitation {
	md := resp.Candidates[0].GroundingMetadata
	if md == nil {
		return nil
	}

	var sources []model.SourceCitation
	for _, chunk := range md.GroundingChunks {
		if chunk.Web == nil {
			continue
		}
		sources = append(sources, model.SourceCitation{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	return sources
}

func (c *googleClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generate(ctx, generateContentRequest{
		Contents: []Content{UserText(prompt)},
	})
	if err != nil {
		return "", err
	}
	return candidateText(resp), nil
}

func (c *googleClient) GenerateWithSearch(ctx context.Context, prompt string) (*GroundedText, error) {
	resp, err := c.generate(ctx, generateContentRequest{
		Contents: []Content{UserText(prompt)},
		Tools:    []tool{{GoogleSearch: &struct{}{}}},
	})
	if err != nil {
		return nil, err
	}

	return &GroundedText{
		Text:    candidateText(resp),
		Sources: candidateSources(resp),
	}, nil
}

func (c *googleClient) GenerateWithTools(ctx context.Context, systemInstruction string, history []Content, decls []FunctionDeclaration) (*Reply, error) {
	body := generateContentRequest{
		Contents: history,
	}
	if systemInstruction != "" {
		body.SystemInstruction = &Content{Parts: []Part{{Text: systemInstruction}}}
	}
	if len(decls) > 0 {
		body.Tools = []tool{{FunctionDeclarations: decls}}
	}

	resp, err := c.generate(ctx, body)
	if err != nil {
		return nil, err
	}

	// A function call takes precedence over any text the model emitted
	// alongside it.
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			return &Reply{Kind: ReplyToolCall, Call: part.FunctionCall}, nil
		}
	}

	return &Reply{Kind: ReplyText, Text: candidateText(resp)}, nil
}
