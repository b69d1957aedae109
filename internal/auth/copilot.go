package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quocvuong92/cmd-sage/internal/constants"
	"github.com/quocvuong92/cmd-sage/internal/logging"
)

// Copilot API constants
const (
	CopilotTokenURL     = "https://api.github.com/copilot_internal/v2/token"
	CopilotBaseURL      = "https://api.githubcopilot.com"
	CopilotVersion      = "0.26.7"
	EditorPluginVersion = "copilot-chat/" + CopilotVersion
	UserAgent           = "GitHubCopilotChat/" + CopilotVersion
	APIVersion          = "2025-04-01"
	VSCodeVersion       = "1.96.0"
)

// ErrGitHubTokenRevoked means the stored GitHub token no longer works and the
// user must log in again.
var ErrGitHubTokenRevoked = errors.New("GitHub token is invalid or expired, run 'cmd-sage login' again")

// CopilotTokenResponse represents the response from Copilot token endpoint
type CopilotTokenResponse struct {
	Token string `json:"token"`
	// ExpiresAt is a Unix timestamp in seconds.
	ExpiresAt int64 `json:"expires_at"`
	RefreshIn int   `json:"refresh_in"`
}

// CopilotExchanger trades a GitHub OAuth token for a Copilot service token.
// It satisfies credentials.Refresher, with the GitHub token in the role of
// the refresh token.
type CopilotExchanger struct {
	httpClient *http.Client
	tokenURL   string
}

// NewCopilotExchanger returns an exchanger for the public token endpoint.
func NewCopilotExchanger() *CopilotExchanger {
	return &CopilotExchanger{
		httpClient: logging.NewHTTPClient(constants.DefaultOAuthTimeout),
		tokenURL:   CopilotTokenURL,
	}
}

// NewCopilotExchangerWithURL targets tokenURL, for tests and proxies.
func NewCopilotExchangerWithURL(tokenURL string, client *http.Client) *CopilotExchanger {
	if client == nil {
		client = logging.NewHTTPClient(constants.DefaultOAuthTimeout)
	}
	return &CopilotExchanger{httpClient: client, tokenURL: tokenURL}
}

// Refresh implements credentials.Refresher.
func (e *CopilotExchanger) Refresh(ctx context.Context, githubToken string) (string, time.Time, error) {
	resp, err := e.Exchange(ctx, githubToken)
	if err != nil {
		return "", time.Time{}, err
	}
	return resp.Token, time.Unix(resp.ExpiresAt, 0), nil
}

// Exchange fetches a new Copilot token.
func (e *CopilotExchanger) Exchange(ctx context.Context, githubToken string) (*CopilotTokenResponse, error) {
	if githubToken == "" {
		return nil, ErrGitHubTokenRevoked
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.tokenURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "token "+githubToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Editor-Version", "vscode/"+VSCodeVersion)
	req.Header.Set("Editor-Plugin-Version", EditorPluginVersion)
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-GitHub-Api-Version", APIVersion)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get Copilot token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrGitHubTokenRevoked
	case http.StatusForbidden:
		return nil, fmt.Errorf("GitHub Copilot access denied, make sure the account has an active Copilot subscription")
	default:
		return nil, fmt.Errorf("failed to get Copilot token: status %d, body: %s", resp.StatusCode, string(body))
	}

	var tokenResp CopilotTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if tokenResp.Token == "" {
		return nil, fmt.Errorf("Copilot token endpoint returned no token")
	}

	return &tokenResp, nil
}

// CopilotHeaders are the client-identification headers the Copilot chat
// endpoint requires next to the bearer token.
func CopilotHeaders() map[string]string {
	return map[string]string{
		"Copilot-Integration-Id":              "vscode-chat",
		"Editor-Version":                      "vscode/" + VSCodeVersion,
		"Editor-Plugin-Version":               EditorPluginVersion,
		"User-Agent":                          UserAgent,
		"Openai-Intent":                       "conversation-panel",
		"X-Github-Api-Version":                APIVersion,
		"X-Vscode-User-Agent-Library-Version": "electron-fetch",
	}
}
