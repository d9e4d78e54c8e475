package session

import (
	"sync"

	"resumetracker/internal/config"
	"resumetracker/internal/errors"
	"resumetracker/internal/types"
)

// CachedStore memoizes Get of an underlying store until Invalidate is
// called, typically by a Watcher.
type CachedStore struct {
	inner CredentialStore

	mu     sync.Mutex
	cached *types.AuthSession
}

// NewCachedStore wraps inner
func NewCachedStore(inner CredentialStore) *CachedStore {
	return &CachedStore{inner: inner}
}

func (c *CachedStore) Get() (types.AuthSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return *c.cached, nil
	}
	session, err := c.inner.Get()
	if err != nil {
		return types.AuthSession{}, err
	}
	c.cached = &session
	return session, nil
}

func (c *CachedStore) Set(session types.AuthSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.inner.Set(session); err != nil {
		c.cached = nil
		return err
	}
	c.cached = &session
	return nil
}

func (c *CachedStore) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cached = nil
	return c.inner.Clear()
}

// Invalidate drops the cached session so the next Get reads through
func (c *CachedStore) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}

func (c *CachedStore) Close() error {
	return c.inner.Close()
}

// watchedStore is a CachedStore refreshed by a file Watcher
type watchedStore struct {
	*CachedStore
	watcher *Watcher
}

func (w *watchedStore) Close() error {
	if err := w.watcher.Stop(); err != nil {
		return err
	}
	return w.CachedStore.Close()
}

// Open opens the configured store. With watching enabled, reads are
// cached and invalidated whenever the backing file changes.
func Open(cfg config.SessionConfig, logger *errors.Logger) (CredentialStore, error) {
	store, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Watch {
		return store, nil
	}

	cached := NewCachedStore(store)
	watcher := NewWatcher(cfg.Path, cfg.DebounceDelay, cached.Invalidate, logger)
	if err := watcher.Start(); err != nil {
		store.Close()
		return nil, err
	}
	return &watchedStore{CachedStore: cached, watcher: watcher}, nil
}
