package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quocvuong92/cmd-sage/internal/api"
	"github.com/quocvuong92/cmd-sage/internal/credentials"
	"github.com/quocvuong92/cmd-sage/internal/provider"
)

type fakeCreds struct {
	cred credentials.Credential
	err  error
}

func (f fakeCreds) Get(ctx context.Context, p string) (credentials.Credential, error) {
	return f.cred, f.err
}

type textSource struct {
	chunks []string
	i      int
}

func (s *textSource) Next() bool      { s.i++; return s.i <= len(s.chunks) }
func (s *textSource) Current() string { return s.chunks[s.i-1] }
func (s *textSource) Err() error      { return nil }
func (s *textSource) Close() error    { return nil }

type fakeStreamer struct {
	target provider.Target
	req    api.Request
	calls  int
	err    error
}

func (f *fakeStreamer) Stream(ctx context.Context, target provider.Target, req api.Request) (*api.Stream, error) {
	f.calls++
	f.target = target
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return api.NewStream(&textSource{chunks: []string{"ls", " -la"}}), nil
}

func userTurn(s string) []api.Message {
	return []api.Message{{Role: api.RoleUser, Content: s}}
}

func TestGenerate_ResolvesTargetAndStreams(t *testing.T) {
	st := &fakeStreamer{}
	svc := NewService(provider.OpenAI, "gpt-4o-mini", fakeCreds{cred: credentials.APIKey{Secret: "sk"}}, WithStreamer(st))

	stream, err := svc.Generate(context.Background(), "sys", userTurn("list files"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	text, err := stream.Text()
	if err != nil || text != "ls -la" {
		t.Errorf("Text() = %q, %v", text, err)
	}

	if st.target.Provider != provider.OpenAI || st.target.Model != "gpt-4o-mini" || st.target.Secret != "sk" {
		t.Errorf("target = %+v", st.target)
	}
	if st.req.System != "sys" || len(st.req.Messages) != 1 {
		t.Errorf("request = %+v", st.req)
	}
}

func TestGenerate_WrapsEveryFailure(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		provider string
		creds    fakeCreds
		streamer *fakeStreamer
		history  []api.Message
		wantAs   func(error) bool
	}{
		{
			name:     "credential store failure",
			provider: provider.GitHubCopilot,
			creds:    fakeCreds{err: &credentials.CredentialsError{Provider: provider.GitHubCopilot, Op: "refresh", Err: boom}},
			streamer: &fakeStreamer{},
			history:  userTurn("q"),
			wantAs: func(err error) bool {
				var ce *credentials.CredentialsError
				return errors.As(err, &ce)
			},
		},
		{
			name:     "unknown provider",
			provider: "azure",
			creds:    fakeCreds{cred: credentials.APIKey{Secret: "k"}},
			streamer: &fakeStreamer{},
			history:  userTurn("q"),
			wantAs: func(err error) bool {
				var upe *provider.UnknownProviderError
				return errors.As(err, &upe)
			},
		},
		{
			name:     "missing key",
			provider: provider.Anthropic,
			creds:    fakeCreds{},
			streamer: &fakeStreamer{},
			history:  userTurn("q"),
			wantAs: func(err error) bool {
				var mke *provider.MissingAPIKeyError
				return errors.As(err, &mke)
			},
		},
		{
			name:     "request failure",
			provider: provider.OpenAI,
			creds:    fakeCreds{cred: credentials.APIKey{Secret: "k"}},
			streamer: &fakeStreamer{err: boom},
			history:  userTurn("q"),
			wantAs:   func(err error) bool { return errors.Is(err, boom) },
		},
		{
			name:     "history not starting with user",
			provider: provider.OpenAI,
			creds:    fakeCreds{cred: credentials.APIKey{Secret: "k"}},
			streamer: &fakeStreamer{},
			history:  []api.Message{{Role: api.RoleAssistant, Content: "x"}},
			wantAs:   func(err error) bool { return true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.provider, "m", tt.creds, WithStreamer(tt.streamer))
			_, err := svc.Generate(context.Background(), "sys", tt.history)

			var ase *AIServiceError
			if !errors.As(err, &ase) {
				t.Fatalf("Generate() error = %v, want *AIServiceError", err)
			}
			if !tt.wantAs(err) {
				t.Errorf("cause not preserved: %v", err)
			}
		})
	}
}

func TestExplain_IsOneOffConversation(t *testing.T) {
	st := &fakeStreamer{}
	svc := NewService(provider.OpenAI, "m", fakeCreds{cred: credentials.APIKey{Secret: "k"}}, WithStreamer(st))

	if _, err := svc.Explain(context.Background(), "tar -xzf a.tgz"); err != nil {
		t.Fatal(err)
	}
	if st.req.System != ExplainPrompt() {
		t.Error("Explain() did not use the explanation prompt")
	}
	if len(st.req.Messages) != 1 || st.req.Messages[0].Content != "tar -xzf a.tgz" {
		t.Errorf("messages = %+v", st.req.Messages)
	}
}

func TestSuggestPrompt_Targets(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"shell", "POSIX shell"},
		{"git", "Target: git."},
		{"gh", "GitHub CLI"},
		{"fish", "POSIX shell"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if p := SuggestPrompt(tt.target); !strings.Contains(p, tt.want) {
				t.Errorf("SuggestPrompt(%q) missing %q", tt.target, tt.want)
			}
		})
	}
}
