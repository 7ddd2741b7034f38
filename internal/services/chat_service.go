package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"forexsim/internal/store"
)

var ErrEmptyMessage = errors.New("empty message")

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatStore interface {
	Insert(ctx context.Context, input store.ChatMessageInput) error
	ListRecent(ctx context.Context, userID string, limit int) ([]store.ChatMessage, error)
}

type AssistantClient interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

// ChatReply is the outcome of one send. Fallback marks a canned reply that
// stood in for the collaborator, still a successful response: every user
// message gets answered.
type ChatReply struct {
	Message  store.ChatMessage
	Fallback bool
}

// ChatService keeps the per-user transcript. Sends for one user are
// serialized by a per-user mutex so each user/assistant pair lands
// contiguously in the stored order.
type ChatService struct {
	chats     ChatStore
	assistant AssistantClient
	rates     RateSource
	timeout   time.Duration
	log       zerolog.Logger

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewChatService(chats ChatStore, assistant AssistantClient, rates RateSource, timeout time.Duration, log zerolog.Logger) *ChatService {
	return &ChatService{
		chats:     chats,
		assistant: assistant,
		rates:     rates,
		timeout:   timeout,
		log:       log.With().Str("service", "chat").Logger(),
		userLocks: make(map[string]*sync.Mutex),
	}
}

// Send appends the user message, asks the assistant, and appends the reply.
// The user message is durable before any generation is attempted; an
// assistant failure yields the fallback reply, never an unanswered message.
func (s *ChatService) Send(ctx context.Context, userID, content string) (ChatReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return ChatReply{}, ErrEmptyMessage
	}

	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.chats.Insert(ctx, store.ChatMessageInput{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return ChatReply{}, translateUserFK(err)
	}

	reply, fallback := s.generate(ctx, content)

	message := store.ChatMessageInput{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chats.Insert(ctx, message); err != nil {
		return ChatReply{}, err
	}
	return ChatReply{
		Message: store.ChatMessage{
			ID:        message.ID,
			UserID:    message.UserID,
			Role:      message.Role,
			Content:   message.Content,
			CreatedAt: message.CreatedAt,
		},
		Fallback: fallback,
	}, nil
}

// History returns the most recent limit messages, oldest first.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]store.ChatMessage, error) {
	return s.chats.ListRecent(ctx, userID, limit)
}

func (s *ChatService) generate(ctx context.Context, content string) (string, bool) {
	rate, rateKnown := s.sampleRate(ctx)
	if s.assistant == nil {
		return fallbackReply(content, rate, rateKnown), true
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	reply, err := s.assistant.Reply(genCtx, buildPrompt(content, rate, rateKnown))
	if err != nil {
		s.log.Warn().Err(err).Msg("assistant failed, using fallback reply")
		return fallbackReply(content, rate, rateKnown), true
	}
	return reply, false
}

func (s *ChatService) sampleRate(ctx context.Context) (decimal.Decimal, bool) {
	quote, err := s.rates.CurrentRate(ctx)
	if err != nil {
		return decimal.Zero, false
	}
	return quote.Rate, true
}

func (s *ChatService) lockFor(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

func buildPrompt(content string, rate decimal.Decimal, rateKnown bool) string {
	prompt := "You are a helpful assistant specialized in USD to INR exchange rates and forex trading. " +
		"You analyze market trends, give trading insights, and answer questions about currency exchange. " +
		"Keep responses concise and informative."
	if rateKnown {
		prompt += fmt.Sprintf("\n\nCurrent USD to INR exchange rate: %s", rate.StringFixedBank(4))
	}
	return prompt + "\n\nUser: " + content
}

func fallbackReply(content string, rate decimal.Decimal, rateKnown bool) string {
	lower := strings.ToLower(content)
	switch {
	case containsAny(lower, "price", "rate", "current", "usd", "inr"):
		if rateKnown {
			return fmt.Sprintf("The current USD to INR exchange rate is %s. The rate moves with market sentiment, economic indicators and geopolitical events.", rate.StringFixedBank(2))
		}
		return "I can help with USD to INR exchange rates, but I cannot fetch the current rate right now. Please try again later."
	case containsAny(lower, "trade", "trading", "buy", "sell"):
		return "For trading USD/INR, consider market trends, economic indicators and your risk tolerance. Always do your own research before trading."
	case containsAny(lower, "chart", "analysis", "technical"):
		return "Technical analysis studies price charts, trends and indicators such as moving averages. Look for patterns and support/resistance levels."
	default:
		return "I can help with USD to INR exchange rates and forex trading questions. Ask about current rates, trading strategies or market analysis."
	}
}

func containsAny(value string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(value, keyword) {
			return true
		}
	}
	return false
}
