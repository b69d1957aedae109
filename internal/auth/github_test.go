package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// fakeGitHub serves the device code and token endpoints. tokenReplies are
// returned in order for successive polls; the last one repeats.
func fakeGitHub(t *testing.T, tokenReplies []string) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/login/device/code", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if got := r.Form.Get("client_id"); got != GitHubClientID {
			t.Errorf("device code client_id = %q, want %q", got, GitHubClientID)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"device_code":      "dev-123",
			"user_code":        "ABCD-1234",
			"verification_uri": "https://github.com/login/device",
			"expires_in":       60,
			"interval":         1,
		})
	})
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&polls, 1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if got := r.Form.Get("device_code"); got != "dev-123" {
			t.Errorf("device_code = %q, want dev-123", got)
		}
		reply := tokenReplies[len(tokenReplies)-1]
		if int(n) <= len(tokenReplies) {
			reply = tokenReplies[n-1]
		}
		w.Header().Set("Content-Type", "application/json")
		if reply != "ok" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": reply})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "gho_granted",
			"token_type":   "bearer",
			"scope":        GitHubAppScopes,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func testFlow(srv *httptest.Server) *DeviceFlow {
	return NewDeviceFlow(
		WithEndpoint(oauth2.Endpoint{
			DeviceAuthURL: srv.URL + "/login/device/code",
			TokenURL:      srv.URL + "/login/oauth/access_token",
			AuthStyle:     oauth2.AuthStyleInParams,
		}),
		WithHTTPClient(srv.Client()),
	)
}

func TestDeviceFlow_PollsWhilePending(t *testing.T) {
	srv, polls := fakeGitHub(t, []string{"authorization_pending", "ok"})
	flow := testFlow(srv)
	ctx := context.Background()

	code, err := flow.Start(ctx)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if code.UserCode != "ABCD-1234" || code.VerificationURI != "https://github.com/login/device" {
		t.Errorf("Start() = %+v", code)
	}

	token, err := flow.Wait(ctx, code)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if token != "gho_granted" {
		t.Errorf("Wait() = %q, want gho_granted", token)
	}
	if got := atomic.LoadInt32(polls); got != 2 {
		t.Errorf("polls = %d, want 2", got)
	}
}

func TestDeviceFlow_AbortsOnTerminalErrors(t *testing.T) {
	tests := []struct {
		reply string
		want  error
	}{
		{"access_denied", ErrAccessDenied},
		{"expired_token", ErrCodeExpired},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			srv, polls := fakeGitHub(t, []string{tt.reply, "ok"})
			flow := testFlow(srv)

			code, err := flow.Start(context.Background())
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			_, err = flow.Wait(context.Background(), code)
			if !errors.Is(err, tt.want) {
				t.Errorf("Wait() error = %v, want %v", err, tt.want)
			}
			if got := atomic.LoadInt32(polls); got != 1 {
				t.Errorf("polls = %d, want 1 (no retry after %s)", got, tt.reply)
			}
		})
	}
}

func TestDeviceFlow_Cancellable(t *testing.T) {
	srv, _ := fakeGitHub(t, []string{"authorization_pending"})
	flow := testFlow(srv)

	code, err := flow.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = flow.Wait(ctx, code)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want context deadline", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Wait() took %v after cancellation", elapsed)
	}
}
