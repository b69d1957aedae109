package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/quocvuong92/cmd-sage/internal/provider"
)

const maxErrorBody = 1 << 20

// streamCompat posts a streaming chat completion to an OpenAI-compatible
// endpoint, sending the target's client headers with every request.
func (c *Client) streamCompat(ctx context.Context, target provider.Target, req Request) (*Stream, error) {
	messages := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: req.System})
	}
	messages = append(messages, req.Messages...)

	jsonData, err := json.Marshal(ChatRequest{
		Model:    target.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(target.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range target.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Authorization", "Bearer "+target.Secret)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("X-Request-Id", uuid.New().String())
	if req.HasAssistantTurn() {
		httpReq.Header.Set("X-Initiator", "agent")
	} else {
		httpReq.Header.Set("X-Initiator", "user")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, compatError(target.Provider, resp.StatusCode, body)
	}

	src, err := prime(newSSESource(resp.Body, target.Provider))
	if err != nil {
		return nil, err
	}
	return NewStream(src), nil
}

// compatError maps an error response to an APIError with a message the user
// can act on.
func compatError(providerID string, statusCode int, body []byte) error {
	errMsg := fmt.Sprintf("status code %d", statusCode)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Error.Message != "":
			errMsg = errResp.Error.Message
		case errResp.Message != "":
			errMsg = errResp.Message
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
		errMsg = text
	}

	switch statusCode {
	case http.StatusUnauthorized:
		msg := "credential rejected, check the stored API key"
		if providerID == provider.GitHubCopilot {
			msg = "Copilot token expired or invalid, run login again"
		}
		return &APIError{Provider: providerID, StatusCode: statusCode, Message: msg}
	case http.StatusForbidden:
		msg := "access denied: " + errMsg
		if providerID == provider.GitHubCopilot {
			msg = "access denied, make sure the account has an active GitHub Copilot subscription"
		}
		return &APIError{Provider: providerID, StatusCode: statusCode, Message: msg}
	case http.StatusTooManyRequests:
		return &APIError{Provider: providerID, StatusCode: statusCode, Message: "rate limited, wait a moment and try again"}
	default:
		return &APIError{Provider: providerID, StatusCode: statusCode, Message: errMsg}
	}
}
