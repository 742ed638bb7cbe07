package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aikona/internal/ai"
	"aikona/internal/model"
	"aikona/internal/observability"
	"aikona/internal/ratelimit"
	"aikona/internal/repository"
	"aikona/internal/sentiment"
)

var (
	ErrMessageEmpty      = errors.New("Message is required")
	ErrRateLimitExceeded = errors.New("Rate limit exceeded. Please wait a moment before trying again.")
)

const (
	defaultHistoryWindow = 10
	professionReply      = "He is my creator. He is a software developer. 💻🚀"
)

// Completer produces the assistant reply for a prompt.
type Completer interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

type MoodPublisher interface {
	Publish(ctx context.Context, entry model.MoodEntry) error
}

type ChatOptions struct {
	SystemPrompt  string
	CreatorName   string
	HistoryWindow int
	ReplyDelay    time.Duration
	Hints         sentiment.HintTable
}

type ChatService struct {
	messageRepo *repository.MessageRepository
	completer   Completer
	limiter     ratelimit.Limiter
	moods       MoodPublisher
	opts        ChatOptions
	logger      *slog.Logger
}

// NewChatService wires the orchestrator; moods may be nil to disable the mood journal.
func NewChatService(
	messageRepo *repository.MessageRepository,
	completer Completer,
	limiter ratelimit.Limiter,
	moods MoodPublisher,
	opts ChatOptions,
	logger *slog.Logger,
) *ChatService {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = defaultHistoryWindow
	}
	if opts.Hints == (sentiment.HintTable{}) {
		opts.Hints = sentiment.DefaultHints
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		messageRepo: messageRepo,
		completer:   completer,
		limiter:     limiter,
		moods:       moods,
		opts:        opts,
		logger:      logger,
	}
}

// SendMessage stores the user's turn, produces a reply and stores that too.
// A stored user message is never rolled back when a later step fails.
func (s *ChatService) SendMessage(ctx context.Context, userID uint, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrMessageEmpty
	}

	userMessage := &model.Message{UserID: userID, Role: model.RoleUser, Text: text}
	if err := s.messageRepo.Create(ctx, userMessage); err != nil {
		return "", err
	}

	if reply, ok := s.cannedReply(text); ok {
		if err := s.saveReply(ctx, userID, reply); err != nil {
			return "", err
		}
		observability.ChatReplies.WithLabelValues("canned").Inc()
		return reply, s.pause(ctx)
	}

	mood := sentiment.Analyze(text)
	hint := s.opts.Hints.For(mood.Score)

	prompt, err := s.buildPrompt(ctx, userMessage, hint)
	if err != nil {
		return "", err
	}

	allowed, err := s.limiter.Allow(ctx)
	if err != nil {
		return "", fmt.Errorf("check rate limit: %w", err)
	}
	if !allowed {
		observability.RateLimitRejections.Inc()
		return "", ErrRateLimitExceeded
	}

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := s.saveReply(ctx, userID, reply); err != nil {
		return "", err
	}
	observability.ChatReplies.WithLabelValues("model").Inc()

	s.recordMood(ctx, userID, mood, hint)
	return reply, s.pause(ctx)
}

func (s *ChatService) History(ctx context.Context, userID uint) ([]model.Message, error) {
	return s.messageRepo.ListByUserID(ctx, userID)
}

func (s *ChatService) Clear(ctx context.Context, userID uint) error {
	n, err := s.messageRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "chat history cleared", "user_id", userID, "deleted", n)
	return nil
}

func (s *ChatService) cannedReply(text string) (string, bool) {
	lower := strings.ToLower(text)
	creator := s.opts.CreatorName
	if creator == "" {
		return "", false
	}

	if containsAny(lower, "who is your creator", "who created you", "your creator", "who made you") {
		return creator + " is my creator. 👨‍💻✨", true
	}
	if containsAny(lower, "what does your creator do", "tell me about your creator",
		"who is "+strings.ToLower(creator), "about your creator") {
		return professionReply, true
	}
	return "", false
}

func (s *ChatService) buildPrompt(ctx context.Context, current *model.Message, hint string) ([]ai.ChatMessage, error) {
	recent, err := s.messageRepo.ListRecentBefore(ctx, current.UserID, current.ID, s.opts.HistoryWindow)
	if err != nil {
		return nil, err
	}

	messages := make([]ai.ChatMessage, 0, len(recent)+2)
	messages = append(messages, ai.ChatMessage{
		Role:    "system",
		Content: s.opts.SystemPrompt + " Current context: " + hint,
	})
	for _, item := range recent {
		role := "assistant"
		if item.Role == model.RoleUser {
			role = "user"
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: item.Text})
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: current.Text})
	return messages, nil
}

func (s *ChatService) saveReply(ctx context.Context, userID uint, text string) error {
	return s.messageRepo.Create(ctx, &model.Message{UserID: userID, Role: model.RoleAI, Text: text})
}

func (s *ChatService) recordMood(ctx context.Context, userID uint, mood sentiment.Result, hint string) {
	if s.moods == nil {
		return
	}
	entry := model.MoodEntry{
		UserID:      userID,
		Score:       mood.Score,
		Comparative: mood.Comparative,
		Hint:        hint,
		CreatedAt:   time.Now(),
	}
	if err := s.moods.Publish(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "publish mood entry failed", "user_id", userID, "error", err)
	}
}

func (s *ChatService) pause(ctx context.Context) error {
	if s.opts.ReplyDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.opts.ReplyDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
