package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/dshills/graphflow/graph/model"
)

type fakeCompletions struct {
	resp *openai.ChatCompletion
	err  error
	got  openai.ChatCompletionNewParams
}

func (f *fakeCompletions) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.got = body
	return f.resp, f.err
}

func TestNewChatModel_RequiresKey(t *testing.T) {
	if _, err := NewChatModel("", ""); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestConvertMessages(t *testing.T) {
	out := convertMessages([]model.Message{
		{Role: model.RoleSystem, Content: "sys"},
		{Role: model.RoleUser, Content: "u"},
		{Role: model.RoleAssistant, Content: "a"},
	})
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(out))
	}
	if out[0].OfSystem == nil {
		t.Error("first message should be a system message")
	}
	if out[1].OfUser == nil {
		t.Error("second message should be a user message")
	}
	if out[2].OfAssistant == nil {
		t.Error("third message should be an assistant message")
	}
}

func TestChat(t *testing.T) {
	t.Run("returns first choice", func(t *testing.T) {
		fake := &fakeCompletions{resp: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "looks good"}}},
			Usage:   openai.CompletionUsage{PromptTokens: 10, CompletionTokens: 3},
		}}
		m := &ChatModel{modelName: DefaultModel, completions: fake}

		out, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "review"}})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if out.Text != "looks good" {
			t.Errorf("Text = %q, want %q", out.Text, "looks good")
		}
		if out.TokensIn != 10 || out.TokensOut != 3 {
			t.Errorf("tokens = %d/%d, want 10/3", out.TokensIn, out.TokensOut)
		}
		if string(fake.got.Model) != DefaultModel {
			t.Errorf("model = %q, want %q", fake.got.Model, DefaultModel)
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		m := &ChatModel{modelName: DefaultModel, completions: &fakeCompletions{resp: &openai.ChatCompletion{}}}
		if _, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "x"}}); err == nil {
			t.Fatal("expected error for empty choices")
		}
	})

	t.Run("api error wrapped", func(t *testing.T) {
		apiErr := errors.New("rate limited")
		m := &ChatModel{modelName: DefaultModel, completions: &fakeCompletions{err: apiErr}}
		_, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "x"}})
		if !errors.Is(err, apiErr) {
			t.Fatalf("expected wrapped api error, got %v", err)
		}
	})
}
