// Package auth implements the GitHub device authorization flow and the
// exchange of a GitHub token for a short-lived Copilot service token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/quocvuong92/cmd-sage/internal/constants"
	"github.com/quocvuong92/cmd-sage/internal/logging"
)

// GitHub OAuth constants (the Copilot editor integration's public client)
const (
	GitHubClientID  = "Iv1.b507a08c87ecfe98"
	GitHubAppScopes = "read:user"
)

var (
	ErrAccessDenied = errors.New("authorization was denied in the browser")
	ErrCodeExpired  = errors.New("device code expired before authorization completed, please try again")
)

// DeviceCode is what the user needs to authorize this client.
type DeviceCode = oauth2.DeviceAuthResponse

// DeviceFlow drives the OAuth 2.0 device authorization grant against GitHub.
type DeviceFlow struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// DeviceFlowOption configures a DeviceFlow.
type DeviceFlowOption func(*DeviceFlow)

// WithEndpoint points the flow at a different authorization server.
func WithEndpoint(endpoint oauth2.Endpoint) DeviceFlowOption {
	return func(d *DeviceFlow) { d.config.Endpoint = endpoint }
}

// WithHTTPClient replaces the client used for device and token requests.
func WithHTTPClient(c *http.Client) DeviceFlowOption {
	return func(d *DeviceFlow) { d.httpClient = c }
}

// NewDeviceFlow returns a flow for the GitHub Copilot client id.
func NewDeviceFlow(opts ...DeviceFlowOption) *DeviceFlow {
	endpoint := github.Endpoint
	// Without a client secret GitHub expects client_id in the form body;
	// pinning the style avoids a doubled request per poll.
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	d := &DeviceFlow{
		config: &oauth2.Config{
			ClientID: GitHubClientID,
			Endpoint: endpoint,
			Scopes:   []string{GitHubAppScopes},
		},
		httpClient: logging.NewHTTPClient(constants.DefaultOAuthTimeout),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DeviceFlow) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, d.httpClient)
}

// Start requests a device and user code.
func (d *DeviceFlow) Start(ctx context.Context) (*DeviceCode, error) {
	code, err := d.config.DeviceAuth(d.clientContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get device code: %w", err)
	}
	return code, nil
}

// Wait polls the token endpoint at the server's interval until the user
// authorizes the device and returns the GitHub access token. Polling
// continues only while authorization is pending; slow_down stretches the
// interval. Any other outcome, or cancellation of ctx, ends the wait.
func (d *DeviceFlow) Wait(ctx context.Context, code *DeviceCode) (string, error) {
	tok, err := d.config.DeviceAccessToken(d.clientContext(ctx), code)
	if err == nil {
		if tok.AccessToken == "" {
			return "", errors.New("token endpoint returned an empty access token")
		}
		return tok.AccessToken, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("authorization cancelled: %w", ctxErr)
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch re.ErrorCode {
		case "access_denied":
			return "", ErrAccessDenied
		case "expired_token":
			return "", ErrCodeExpired
		}
		if re.ErrorDescription != "" {
			return "", fmt.Errorf("OAuth error: %s - %s", re.ErrorCode, re.ErrorDescription)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "", ErrCodeExpired
	}
	return "", fmt.Errorf("failed to obtain access token: %w", err)
}
