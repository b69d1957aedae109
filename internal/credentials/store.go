package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/quocvuong92/cmd-sage/internal/config"
	"github.com/quocvuong92/cmd-sage/internal/constants"
	"github.com/quocvuong92/cmd-sage/internal/fileutil"
	"github.com/quocvuong92/cmd-sage/internal/logging"
)

const (
	filePerm = 0600
	dirPerm  = 0700
)

var (
	// ErrNotConfigured means no credentials file has been written yet.
	ErrNotConfigured = errors.New("no credentials configured")
	// ErrNoRefreshToken means an expired OAuth credential cannot be renewed.
	ErrNoRefreshToken = errors.New("access token expired and no refresh token is stored")
	// ErrNoRefresher means the provider has no token endpoint registered.
	ErrNoRefresher = errors.New("provider does not support token refresh")
)

// CredentialsError reports a credential that is missing, unreadable or
// could not be refreshed. Provider is empty for whole-file failures.
type CredentialsError struct {
	Provider string
	Op       string
	Err      error
}

func (e *CredentialsError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("credentials %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("credentials for %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *CredentialsError) Unwrap() error { return e.Err }

// Refresher exchanges a refresh token for a new access token and its expiry.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken string, expiresAt time.Time, err error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, refreshToken string) (string, time.Time, error)

func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	return f(ctx, refreshToken)
}

// Store reads and writes the credentials document. Every mutation rewrites
// the whole file atomically; concurrent processes are last-writer-wins.
type Store struct {
	mu         sync.Mutex
	path       string
	refreshers map[string]Refresher
	now        func() time.Time
	log        *logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRefresher registers the token endpoint used to renew provider's
// expired OAuth credentials.
func WithRefresher(provider string, r Refresher) Option {
	return func(s *Store) { s.refreshers[provider] = r }
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:       path,
		refreshers: make(map[string]Refresher),
		now:        time.Now,
		log:        logging.With(logging.Fields{"component": "credentials"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultPath is the credentials file inside the state directory.
func DefaultPath() (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", &CredentialsError{Op: "locate", Err: err}
	}
	return filepath.Join(dir, constants.CredentialsFileName), nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get returns provider's credential, or nil when none is stored. An expired
// OAuth credential is refreshed and persisted before it is returned.
func (s *Store) Get(ctx context.Context, provider string) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadOrCreate()
	if err != nil {
		return nil, err
	}

	switch c := rec[provider].(type) {
	case nil:
		return nil, nil
	case APIKey:
		return c, nil
	case OAuth:
		if !c.Expired(s.now()) {
			return c, nil
		}
		refreshed, err := s.refresh(ctx, provider, c)
		if err != nil {
			return nil, err
		}
		rec[provider] = refreshed
		if err := s.write(rec); err != nil {
			return nil, &CredentialsError{Provider: provider, Op: "save refreshed token", Err: err}
		}
		return refreshed, nil
	default:
		return nil, &CredentialsError{Provider: provider, Op: "read", Err: fmt.Errorf("unsupported credential type %T", c)}
	}
}

func (s *Store) refresh(ctx context.Context, provider string, c OAuth) (OAuth, error) {
	if c.RefreshToken == "" {
		return OAuth{}, &CredentialsError{Provider: provider, Op: "refresh", Err: ErrNoRefreshToken}
	}
	r, ok := s.refreshers[provider]
	if !ok {
		return OAuth{}, &CredentialsError{Provider: provider, Op: "refresh", Err: ErrNoRefresher}
	}

	s.log.Debug("refreshing expired token", logging.Fields{"provider": provider, "expired_at": c.ExpiresAt().Format(time.RFC3339)})

	access, expiresAt, err := r.Refresh(ctx, c.RefreshToken)
	if err != nil {
		return OAuth{}, &CredentialsError{Provider: provider, Op: "refresh", Err: err}
	}
	if access == "" {
		return OAuth{}, &CredentialsError{Provider: provider, Op: "refresh", Err: errors.New("token endpoint returned an empty access token")}
	}

	return OAuth{
		AccessToken:      access,
		RefreshToken:     c.RefreshToken,
		ExpiresAtEpochMs: expiresAt.UnixMilli(),
	}, nil
}

// Set stores c for provider, replacing any previous credential.
func (s *Store) Set(provider string, c Credential) error {
	if c == nil {
		return &CredentialsError{Provider: provider, Op: "save", Err: errors.New("nil credential")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadOrCreate()
	if err != nil {
		return err
	}
	rec[provider] = c
	if err := s.write(rec); err != nil {
		return &CredentialsError{Provider: provider, Op: "save", Err: err}
	}
	return nil
}

// Delete removes provider's credential and reports whether one existed.
func (s *Store) Delete(provider string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load()
	if errors.Is(err, ErrNotConfigured) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, ok := rec[provider]; !ok {
		return false, nil
	}
	delete(rec, provider)
	if err := s.write(rec); err != nil {
		return false, &CredentialsError{Provider: provider, Op: "delete", Err: err}
	}
	return true, nil
}

// GetAll returns the full record, creating an empty owner-only document on
// first use.
func (s *Store) GetAll() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadOrCreate()
}

// Load returns the full record without creating the file. When none exists
// the error is a CredentialsError wrapping ErrNotConfigured.
func (s *Store) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) loadOrCreate() (Record, error) {
	rec, err := s.load()
	if !errors.Is(err, ErrNotConfigured) {
		return rec, err
	}
	rec = Record{}
	if err := s.write(rec); err != nil {
		return nil, &CredentialsError{Op: "create", Err: err}
	}
	s.log.Debug("created credentials file", logging.Fields{"path": s.path})
	return rec, nil
}

func (s *Store) load() (Record, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &CredentialsError{Op: "read", Err: ErrNotConfigured}
	}
	if err != nil {
		return nil, &CredentialsError{Op: "read", Err: err}
	}
	s.ensurePermissions(info)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &CredentialsError{Op: "read", Err: err}
	}

	rec := Record{}
	if len(data) == 0 {
		return rec, nil
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &CredentialsError{Op: "parse", Err: fmt.Errorf("%s: %w", s.path, err)}
	}
	return rec, nil
}

// ensurePermissions narrows a credentials file that others can read.
func (s *Store) ensurePermissions(info os.FileInfo) {
	if runtime.GOOS == "windows" || info.Mode().Perm()&0077 == 0 {
		return
	}
	s.log.Warn("credentials file was accessible to other users, restricting to owner", logging.Fields{
		"path": s.path,
		"mode": fmt.Sprintf("%04o", info.Mode().Perm()),
	})
	if err := os.Chmod(s.path, filePerm); err != nil {
		s.log.Warn("could not restrict credentials file permissions", logging.Fields{"error": err.Error()})
	}
}

func (s *Store) write(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(s.path, data, filePerm, dirPerm)
}
