package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

type stubChatClient struct {
	response openai.ChatCompletionResponse
	err      error
	last     openai.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.last = req
	return s.response, s.err
}

type stubConverse struct {
	out  *bedrockruntime.ConverseOutput
	err  error
	last *bedrockruntime.ConverseInput
}

func (s *stubConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	s.last = in
	return s.out, s.err
}

type staticClient struct {
	text  string
	err   error
	calls int
}

func (c *staticClient) Complete(context.Context, Request) (Response, error) {
	c.calls++
	return Response{Text: c.text}, c.err
}

func TestOpenAIClient_Complete(t *testing.T) {
	stub := &stubChatClient{
		response: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "  What service would you like?  "}, FinishReason: openai.FinishReasonStop},
			},
			Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		},
	}
	client := newOpenAIClientWithChat(stub, "")

	resp, err := client.Complete(context.Background(), Request{
		System:      []string{SystemPrompt("")},
		Messages:    []Message{{Role: RoleAssistant, Content: "Hello"}, {Role: RoleUser, Content: "John Smith"}, {Role: RoleUser, Content: "  "}},
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	})
	require.NoError(t, err)
	assert.Equal(t, "What service would you like?", resp.Text)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, int32(15), resp.Usage.TotalTokens)

	assert.Equal(t, defaultOpenAIModel, stub.last.Model)
	assert.Equal(t, 150, stub.last.MaxTokens)
	require.Len(t, stub.last.Messages, 3, "blank messages are dropped")
	assert.Equal(t, openai.ChatMessageRoleSystem, stub.last.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, stub.last.Messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, stub.last.Messages[2].Role)
}

func TestOpenAIClient_Errors(t *testing.T) {
	client := newOpenAIClientWithChat(&stubChatClient{err: errors.New("boom")}, "gpt-4o")
	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	client = newOpenAIClientWithChat(&stubChatClient{}, "gpt-4o")
	_, err = client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Error(t, err)

	_, err = client.Complete(context.Background(), Request{Messages: []Message{{Role: "tool", Content: "hi"}}})
	assert.Error(t, err)

	_, err = NewOpenAIClient("", "")
	assert.Error(t, err)
}

func TestBedrockClient_Complete(t *testing.T) {
	stub := &stubConverse{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: "Great choice."}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{InputTokens: aws.Int32(4), OutputTokens: aws.Int32(2), TotalTokens: aws.Int32(6)},
	}}
	client := NewBedrockClient(stub, "anthropic.claude-3-haiku")

	resp, err := client.Complete(context.Background(), Request{
		System:      []string{"be brief"},
		Messages:    []Message{{Role: RoleSystem, Content: "extra"}, {Role: RoleUser, Content: "Massage"}},
		Temperature: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Great choice.", resp.Text)
	assert.Equal(t, int32(6), resp.Usage.TotalTokens)
	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(stub.last.ModelId))
	assert.Len(t, stub.last.System, 2)
	assert.Len(t, stub.last.Messages, 1)
	assert.Nil(t, stub.last.InferenceConfig)
}

func TestBedrockClient_RequiresModelAndText(t *testing.T) {
	client := NewBedrockClient(&stubConverse{}, "")
	_, err := client.Complete(context.Background(), Request{})
	assert.Error(t, err)

	empty := NewBedrockClient(&stubConverse{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{}},
	}}, "model")
	_, err = empty.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Error(t, err)
}

func TestFallbackClient(t *testing.T) {
	primary := &staticClient{err: errors.New("primary down")}
	secondary := &staticClient{text: "from fallback"}
	client := NewFallbackClient(primary, secondary, logging.New("error"))

	resp, err := client.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)

	secondary.err = errors.New("fallback down")
	_, err = client.Complete(context.Background(), Request{})
	assert.EqualError(t, err, "fallback down")

	only := &staticClient{text: "solo"}
	assert.Same(t, only, NewFallbackClient(only, nil, nil).(*staticClient))
}

func TestScriptedClient_WalksThroughBooking(t *testing.T) {
	cases := map[string]string{
		"I'd like to book": "What service are you looking to book?",
		"Physiotherapy":    "Great, a Physiotherapy.",
		"massage":          "Great, a Massage.",
		"Monday at 2pm":    "Can I get your full name",
		"John Smith":       "I have you booked",
		"no thanks":        "Goodbye",
		"no":               "Goodbye",
		"??":               "Could you repeat it?",
	}
	for input, want := range cases {
		resp, err := ScriptedClient{}.Complete(context.Background(), Request{
			Messages: []Message{{Role: RoleAssistant, Content: "Hello"}, {Role: RoleUser, Content: input}},
		})
		require.NoError(t, err)
		assert.Contains(t, resp.Text, want, "input %q", input)
	}
}

func TestClassifyAction(t *testing.T) {
	assert.Equal(t, Action{Kind: ActionBook}, ClassifyAction("Perfect! I have you booked."))
	assert.Equal(t, ActionCheckAvailability, ClassifyAction("Let me check availability for Monday.").Kind)
	assert.Equal(t, Action{Ending: true}, ClassifyAction("Have a great day!"))
	assert.Equal(t, Action{}, ClassifyAction("What service would you like?"))
}

func TestPromptAndGreeting(t *testing.T) {
	prompt := SystemPrompt("Northside Physio")
	assert.Contains(t, prompt, "Northside Physio")
	assert.Contains(t, prompt, "Physiotherapy, Massage, or General Consultation")
	assert.Equal(t, conversation.DefaultGreeting, Greeting(""))
	assert.True(t, strings.HasPrefix(Greeting("Northside Physio"), "Hello, thanks for calling Northside Physio."))
}

func TestMessagesFromTurns(t *testing.T) {
	msgs := MessagesFromTurns([]conversation.Turn{
		{Speaker: conversation.SpeakerAgent, Text: "Hello"},
		{Speaker: conversation.SpeakerUser, Text: "Hi"},
	})
	assert.Equal(t, []Message{{Role: RoleAssistant, Content: "Hello"}, {Role: RoleUser, Content: "Hi"}}, msgs)
}
