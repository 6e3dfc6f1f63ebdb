// Package model defines the chat model abstraction used by LLM-backed tools.
package model

import "context"

// ChatModel sends a conversation to a language model and returns its reply.
//
// Adapters for Anthropic, OpenAI and Google live in subpackages. Tools depend
// only on this interface so tests can substitute MockChatModel.
type ChatModel interface {
	// Chat sends messages in order and returns the model's reply.
	// Implementations must honor ctx cancellation.
	Chat(ctx context.Context, messages []Message) (ChatOut, error)
}

// Message is a single conversation turn.
type Message struct {
	// Role is one of RoleSystem, RoleUser or RoleAssistant.
	Role string

	// Content is the text of the turn.
	Content string
}

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatOut is a model reply.
type ChatOut struct {
	// Text is the concatenated text content of the reply.
	Text string

	// TokensIn and TokensOut report usage when the provider returns it.
	TokensIn  int
	TokensOut int
}

// SplitSystem separates system turns from the rest of the conversation.
// Multiple system turns are joined with a blank line.
func SplitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != RoleSystem {
			rest = append(rest, msg)
			continue
		}
		if system != "" {
			system += "\n\n"
		}
		system += msg.Content
	}
	return system, rest
}
