package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dshills/graphflow/graph/model"
)

// DefaultReviewPrompt is the system prompt LLMTool sends when none is configured.
const DefaultReviewPrompt = "You are a senior code reviewer. Point out bugs, risky constructs and " +
	"readability problems in the code you are given. Answer in short bullet points."

// LLMTool asks a chat model to review the source under an input key and
// writes the reply under an output key.
//
// Delta keys written:
//   - <OutputKey>: reply text
//   - llm_tokens: tokens in plus tokens out, accumulated across calls
type LLMTool struct {
	Model        model.ChatModel
	SystemPrompt string
	InputKey     string
	OutputKey    string
}

// NewLLMTool creates a review tool reading "code" and writing "llm_review".
func NewLLMTool(m model.ChatModel) *LLMTool {
	return &LLMTool{
		Model:        m,
		SystemPrompt: DefaultReviewPrompt,
		InputKey:     "code",
		OutputKey:    "llm_review",
	}
}

// Call implements Tool.
func (l *LLMTool) Call(ctx context.Context, state map[string]any) (map[string]any, error) {
	if l.Model == nil {
		return nil, fmt.Errorf("llm tool: no chat model configured")
	}
	input, _ := state[l.InputKey].(string)
	if input == "" {
		return nil, fmt.Errorf("llm tool: %s is required (string)", l.InputKey)
	}

	messages := make([]model.Message, 0, 2)
	if l.SystemPrompt != "" {
		messages = append(messages, model.Message{Role: model.RoleSystem, Content: l.SystemPrompt})
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: input})

	out, err := l.Model.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	tokens := out.TokensIn + out.TokensOut
	tokens += tokenCount(state["llm_tokens"])
	return map[string]any{
		l.OutputKey:  out.Text,
		"llm_tokens": tokens,
	}, nil
}

// tokenCount reads a previously accumulated count. JSON-decoded state holds
// numbers as float64 or json.Number, Go tools write int.
func tokenCount(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	}
	return 0
}
