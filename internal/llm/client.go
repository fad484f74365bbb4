package llm

import (
	"context"

	"github.com/wolfman30/voice-booking-agent/internal/conversation"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a provider-neutral chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type Request struct {
	Model       string
	System      []string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
}

type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client produces the next assistant utterance for a conversation.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// MessagesFromTurns maps call history onto chat messages.
func MessagesFromTurns(turns []conversation.Turn) []Message {
	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		role := RoleUser
		if t.Speaker == conversation.SpeakerAgent {
			role = RoleAssistant
		}
		out = append(out, Message{Role: role, Content: t.Text})
	}
	return out
}
