package api

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/quocvuong92/cmd-sage/internal/constants"
	"github.com/quocvuong92/cmd-sage/internal/provider"
)

func (c *Client) streamAnthropic(ctx context.Context, target provider.Target, req Request) (*Stream, error) {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(target.Secret),
		anthropicoption.WithHTTPClient(c.httpClient),
		anthropicoption.WithMaxRetries(0),
	}
	if target.BaseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(target.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(target.Model),
		MaxTokens: constants.DefaultMaxTokens,
		Messages:  toAnthropicMessages(req),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	events := client.Messages.NewStreaming(ctx, params)
	src, err := prime(&sdkSource[anthropic.MessageStreamEventUnion]{events: events, text: anthropicText})
	if err != nil {
		apiErr := &APIError{Provider: target.Provider, Message: err.Error(), Err: err}
		var sdkErr *anthropic.Error
		if errors.As(err, &sdkErr) {
			apiErr.StatusCode = sdkErr.StatusCode
		}
		return nil, apiErr
	}
	return NewStream(src), nil
}

func toAnthropicMessages(req Request) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return messages
}

func anthropicText(event anthropic.MessageStreamEventUnion) string {
	ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
	if !ok {
		return ""
	}
	if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
		return delta.Text
	}
	return ""
}
