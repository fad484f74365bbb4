package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const defaultOpenAIModel = "gpt-4o-mini"

var openAITracer = otel.Tracer("voicebooking.internal.llm.openai")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient implements Client with the OpenAI chat completions API.
type OpenAIClient struct {
	client chatClient
	model  string
}

// NewOpenAIClient builds a client from an API key.
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: openai api key is required")
	}
	return newOpenAIClientWithChat(openai.NewClient(apiKey), model), nil
}

func newOpenAIClientWithChat(client chatClient, model string) *OpenAIClient {
	if client == nil {
		panic("llm: chat client cannot be nil")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{client: client, model: model}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = c.model
	}
	ctx, span := openAITracer.Start(ctx, "llm.openai.complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", model), attribute.Int("llm.messages", len(req.Messages)))

	messages := make([]openai.ChatCompletionMessage, 0, len(req.System)+len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: block})
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: content})
		case RoleUser:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: content})
		case RoleAssistant:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content})
		default:
			return Response{}, fmt.Errorf("llm: unsupported role %q", msg.Role)
		}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature >= 0 {
		chatReq.Temperature = req.Temperature
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		span.RecordError(err)
		return Response{}, fmt.Errorf("llm: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.New("llm: openai returned no choices")
	}

	choice := resp.Choices[0]
	return Response{
		Text:       strings.TrimSpace(choice.Message.Content),
		StopReason: string(choice.FinishReason),
		Usage: TokenUsage{
			InputTokens:  int32(resp.Usage.PromptTokens),
			OutputTokens: int32(resp.Usage.CompletionTokens),
			TotalTokens:  int32(resp.Usage.TotalTokens),
		},
	}, nil
}
