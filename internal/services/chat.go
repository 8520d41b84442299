package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"terroir/internal/config"
	"terroir/internal/genai"
	"terroir/internal/metrics"
	"terroir/internal/model"
)

// sommelierInstruction is the persona for chat sessions.
const sommelierInstruction = `You are an expert Sommelier and Tour Guide for the Canberra District Wine Region.
You are friendly, sophisticated, and passionate about cool-climate wines.
When asked about specific wineries, use the provided context to give accurate details, but feel free to elaborate on the general characteristics of the region (e.g., the spiciness of the Shiraz, the floral notes of the Riesling).
Keep responses concise (under 100 words) unless asked for a detailed itinerary.`

// chatApology is returned on any transport failure mid-conversation;
// the chat surface never hard-fails.
const chatApology = "My apologies, I seem to be having trouble connecting to the cellar records. Please try again in a moment."

const chatSummaryFallback = "I found some wines, but I'm having trouble summarizing them."

const (
	defaultSessionTTL  = 30 * time.Minute
	defaultMaxSessions = 100
)

// ChatSession is one sommelier conversation. The model-side history
// (including tool call/response turns) and the user-facing transcript
// live only as long as the session.
type ChatSession struct {
	ID string

	client     genai.Client
	aggregator *Aggregator

	mu         sync.Mutex
	history    []genai.Content
	transcript []model.ChatMessage
	lastActive time.Time
}

// SendMessage sends one user turn and returns the model's reply. When
// the model invokes the wine search tool, the cross-winery search is
// executed and its result fed back into the same conversation before
// the final text is returned. Any transport failure yields the fixed
// apology string instead of an error.
func (s *ChatSession) SendMessage(ctx context.Context, text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	attempt := append(append([]genai.Content{}, s.history...), genai.UserText(text))

	reply, err := s.client.GenerateWithTools(ctx, sommelierInstruction, attempt, []genai.FunctionDeclaration{wineSearchTool})
	metrics.RecordModelCall("chat", err == nil)
	if err != nil {
		return chatApology
	}

	answer := ""
	switch {
	case reply.Kind == genai.ReplyToolCall && reply.Call.Name == searchToolName:
		attempt = append(attempt, genai.Content{
			Role:  "model",
			Parts: []genai.Part{{FunctionCall: reply.Call}},
		})
		attempt = append(attempt, genai.ToolResult(searchToolName, s.executeSearchTool(ctx, reply.Call.Args)))

		final, err := s.client.GenerateWithTools(ctx, sommelierInstruction, attempt, []genai.FunctionDeclaration{wineSearchTool})
		metrics.RecordModelCall("chat", err == nil)
		if err != nil {
			return chatApology
		}
		answer = final.Text
		if strings.TrimSpace(answer) == "" {
			answer = chatSummaryFallback
		}
		attempt = append(attempt, genai.ModelText(answer))

	case reply.Kind == genai.ReplyToolCall:
		// Unknown tool; nothing to execute. Treat as an uninterpretable
		// turn rather than failing the conversation.
		answer = chatApology
		attempt = append(attempt, genai.ModelText(answer))

	default:
		answer = reply.Text
		attempt = append(attempt, genai.ModelText(answer))
	}

	// Only commit the turn once it fully succeeded, so a failed
	// exchange leaves the conversation where it was.
	s.history = attempt
	now := time.Now().UnixMilli()
	s.transcript = append(s.transcript,
		model.ChatMessage{Role: "user", Text: text, Timestamp: now},
		model.ChatMessage{Role: "model", Text: answer, Timestamp: now},
	)
	metrics.RecordChatTurn()

	return answer
}

// executeSearchTool runs the aggregator with the model's arguments and
// shapes the function response the way the model expects.
func (s *ChatSession) executeSearchTool(ctx context.Context, args map[string]any) map[string]any {
	decoded, ok := decodeSearchArgs(args)
	if !ok {
		return map[string]any{"foundWines": map[string]any{"message": "No wineries found known for that variety."}}
	}

	result := s.aggregator.Aggregate(ctx, decoded.Variety, decoded.MaxPrice, decoded.District)
	if len(result.SearchedWineries) == 0 {
		return map[string]any{"foundWines": map[string]any{"message": "No wineries found known for that variety."}}
	}

	return map[string]any{"foundWines": map[string]any{
		"searchedWineries": result.SearchedWineries,
		"matches":          result.Matches,
	}}
}

// Transcript returns a copy of the user-facing conversation so far.
func (s *ChatSession) Transcript() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// ChatManager owns the live chat sessions for the process. Sessions
// are in-memory only and swept once idle past the configured TTL.
type ChatManager struct {
	client     genai.Client
	aggregator *Aggregator

	ttl         time.Duration
	maxSessions int

	mu       sync.Mutex
	sessions map[string]*ChatSession
}

// NewChatManager constructs a ChatManager and starts its idle sweeper.
func NewChatManager(cfg *config.Config, client genai.Client, aggregator *Aggregator) *ChatManager {
	ttl := defaultSessionTTL
	maxSessions := defaultMaxSessions
	if cfg != nil {
		if cfg.Chat.SessionTTLMinutes > 0 {
			ttl = time.Duration(cfg.Chat.SessionTTLMinutes) * time.Minute
		}
		if cfg.Chat.MaxSessions > 0 {
			maxSessions = cfg.Chat.MaxSessions
		}
	}

	m := &ChatManager{
		client:      client,
		aggregator:  aggregator,
		ttl:         ttl,
		maxSessions: maxSessions,
		sessions:    make(map[string]*ChatSession),
	}
	go m.sweep()
	return m
}

// Create starts a new session and returns it.
func (m *ChatManager) Create() (*ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("too many active chat sessions (limit %d)", m.maxSessions)
	}

	s := &ChatSession{
		ID:         uuid.New().String(),
		client:     m.client,
		aggregator: m.aggregator,
		lastActive: time.Now(),
	}
	m.sessions[s.ID] = s
	return s, nil
}

// Get looks up a live session.
func (m *ChatManager) Get(id string) (*ChatSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete ends a session, discarding its history.
func (m *ChatManager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// sweep drops sessions idle past the TTL.
func (m *ChatManager) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-m.ttl)
		m.mu.Lock()
		for id, s := range m.sessions {
			s.mu.Lock()
			idle := s.lastActive.Before(cutoff)
			s.mu.Unlock()
			if idle {
				delete(m.sessions, id)
			}
		}
		m.mu.Unlock()
	}
}
