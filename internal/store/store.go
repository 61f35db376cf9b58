// Package store is the persistence facade. It exposes one Backend contract
// with two implementations: a remote database collaborator reached over
// REST, and a local SQLite store used in degraded mode. The facade picks the
// backend per call from the current storage configuration, so settings saved
// mid-session take effect on the next operation without a restart.
package store

import (
	"context"
	"errors"
	"sync"

	"pageguard/internal/config"
	"pageguard/internal/logging"
	"pageguard/internal/types"
)

var (
	// ErrRemoteUnavailable wraps any transport-level failure of the remote
	// database collaborator.
	ErrRemoteUnavailable = errors.New("remote database unavailable")
	// ErrUserExists is returned by RegisterUser for a duplicate email.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned by LoginUser in remote mode when the email
	// is unknown. Local mode auto-creates instead (see LocalBackend).
	ErrUserNotFound = errors.New("user not found")
)

// Backend is the storage contract shared by both modes. All reads are
// filtered by owner where a userID parameter exists; deletes are idempotent.
type Backend interface {
	RegisterUser(ctx context.Context, email, name string) (*types.User, error)
	LoginUser(ctx context.Context, email string) (*types.User, error)

	AddLog(ctx context.Context, userID, userName, action, details string) error
	Logs(ctx context.Context) ([]types.LogEntry, error)

	SaveSession(ctx context.Context, session types.AnalysisSession) (*types.AnalysisSession, error)
	History(ctx context.Context, userID string) ([]types.AnalysisSession, error)
	DeleteHistory(ctx context.Context, id string) error
	ClearHistory(ctx context.Context, userID string) error

	Close() error
}

// Facade selects remote or local mode per call. Construct one per process
// context and pass it explicitly; there is no package-level instance.
type Facade struct {
	mu     sync.RWMutex
	cfg    config.StorageConfig
	local  *LocalBackend
	remote *RemoteBackend
}

// NewFacade creates a facade over the given storage configuration.
// The local backend is opened lazily on first degraded-mode call.
func NewFacade(cfg config.StorageConfig) *Facade {
	return &Facade{cfg: cfg}
}

// SetConfig swaps the storage configuration. Wired to config.Watch so the
// remote-vs-local decision tracks the file on disk.
func (f *Facade) SetConfig(cfg config.StorageConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cfg.RemoteConfigured() != f.cfg.RemoteConfigured() {
		logging.Store("storage mode changing: remote=%v", cfg.RemoteConfigured())
	}
	f.cfg = cfg
	f.remote = nil // rebuilt from the new settings on next use
}

// Mode reports which backend the next call would use.
func (f *Facade) Mode() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.cfg.RemoteConfigured() {
		return "remote"
	}
	return "local"
}

// backend resolves the implementation for the current configuration.
func (f *Facade) backend() (Backend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cfg.RemoteConfigured() {
		if f.remote == nil {
			f.remote = NewRemoteBackend(f.cfg.RemoteURL, f.cfg.RemoteKey)
		}
		return f.remote, nil
	}

	if f.local == nil {
		local, err := NewLocalBackend(f.cfg)
		if err != nil {
			return nil, err
		}
		f.local = local
	}
	return f.local, nil
}

func (f *Facade) RegisterUser(ctx context.Context, email, name string) (*types.User, error) {
	b, err := f.backend()
	if err != nil {
		return nil, err
	}
	return b.RegisterUser(ctx, email, name)
}

func (f *Facade) LoginUser(ctx context.Context, email string) (*types.User, error) {
	b, err := f.backend()
	if err != nil {
		return nil, err
	}
	return b.LoginUser(ctx, email)
}

func (f *Facade) AddLog(ctx context.Context, userID, userName, action, details string) error {
	b, err := f.backend()
	if err != nil {
		return err
	}
	return b.AddLog(ctx, userID, userName, action, details)
}

func (f *Facade) Logs(ctx context.Context) ([]types.LogEntry, error) {
	b, err := f.backend()
	if err != nil {
		return nil, err
	}
	return b.Logs(ctx)
}

func (f *Facade) SaveSession(ctx context.Context, session types.AnalysisSession) (*types.AnalysisSession, error) {
	b, err := f.backend()
	if err != nil {
		return nil, err
	}
	return b.SaveSession(ctx, session)
}

func (f *Facade) History(ctx context.Context, userID string) ([]types.AnalysisSession, error) {
	b, err := f.backend()
	if err != nil {
		return nil, err
	}
	return b.History(ctx, userID)
}

func (f *Facade) DeleteHistory(ctx context.Context, id string) error {
	b, err := f.backend()
	if err != nil {
		return err
	}
	return b.DeleteHistory(ctx, id)
}

func (f *Facade) ClearHistory(ctx context.Context, userID string) error {
	b, err := f.backend()
	if err != nil {
		return err
	}
	return b.ClearHistory(ctx, userID)
}

// Close releases whichever backends were actually opened.
func (f *Facade) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var firstErr error
	if f.local != nil {
		firstErr = f.local.Close()
		f.local = nil
	}
	if f.remote != nil {
		if err := f.remote.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		f.remote = nil
	}
	return firstErr
}
