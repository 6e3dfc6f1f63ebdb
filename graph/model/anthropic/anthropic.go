// Package anthropic adapts Anthropic's Claude API to model.ChatModel.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/graphflow/graph/model"
)

// DefaultModel is used when NewChatModel receives an empty model name.
const DefaultModel = "claude-3-5-sonnet-20241022"

// DefaultMaxTokens bounds the length of each reply.
const DefaultMaxTokens = 4096

// messagesAPI is the subset of the SDK's message service used here.
type messagesAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// ChatModel implements model.ChatModel for Claude.
//
// The Messages API has no system role inside the conversation, so system
// turns are folded into the first user turn.
//
// Example:
//
//	m, err := anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), "")
//	out, err := m.Chat(ctx, []model.Message{{Role: model.RoleUser, Content: "Review this"}})
type ChatModel struct {
	modelName string
	maxTokens int64
	messages  messagesAPI
}

// NewChatModel creates a Claude chat model. An empty modelName selects DefaultModel.
func NewChatModel(apiKey, modelName string) (*ChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{
		modelName: modelName,
		maxTokens: DefaultMaxTokens,
		messages:  &client.Messages,
	}, nil
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.modelName),
		MaxTokens: m.maxTokens,
		Messages:  convertMessages(messages),
	}
	if len(params.Messages) == 0 {
		return model.ChatOut{}, errors.New("anthropic: no user or assistant messages")
	}

	resp, err := m.messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return model.ChatOut{
		Text:      sb.String(),
		TokensIn:  int(resp.Usage.InputTokens),
		TokensOut: int(resp.Usage.OutputTokens),
	}, nil
}

func convertMessages(messages []model.Message) []anthropic.MessageParam {
	system, rest := model.SplitSystem(messages)
	out := make([]anthropic.MessageParam, 0, len(rest))
	for _, msg := range rest {
		content := msg.Content
		if system != "" && msg.Role == model.RoleUser {
			content = system + "\n\n" + content
			system = ""
		}
		switch msg.Role {
		case model.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
		}
	}
	return out
}
