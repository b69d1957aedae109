package api

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/quocvuong92/cmd-sage/internal/provider"
)

func (c *Client) streamOpenAI(ctx context.Context, target provider.Target, req Request) (*Stream, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(target.Secret),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
	}
	if target.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(target.BaseURL))
	}
	for k, v := range target.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	client := openai.NewClient(opts...)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(target.Model),
		Messages: toOpenAIMessages(req),
	}

	events := client.Chat.Completions.NewStreaming(ctx, params)
	src, err := prime(&sdkSource[openai.ChatCompletionChunk]{events: events, text: openAIText})
	if err != nil {
		apiErr := &APIError{Provider: target.Provider, Message: err.Error(), Err: err}
		var sdkErr *openai.Error
		if errors.As(err, &sdkErr) {
			apiErr.StatusCode = sdkErr.StatusCode
		}
		return nil, apiErr
	}
	return NewStream(src), nil
}

func toOpenAIMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if m.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	return messages
}

func openAIText(chunk openai.ChatCompletionChunk) string {
	if len(chunk.Choices) == 0 {
		return ""
	}
	return chunk.Choices[0].Delta.Content
}
