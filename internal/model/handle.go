package model

import (
	"sync"
	"sync/atomic"
)

// Handle is the load-once owner of the model session. Initialization is
// idempotent and safe under concurrent first access; every caller observes
// the same session or the same load error.
type Handle struct {
	modelPath    string
	metadataPath string

	once    sync.Once
	session *Session
	err     error
	loaded  atomic.Bool
}

func NewHandle(modelPath, metadataPath string) *Handle {
	return &Handle{
		modelPath:    modelPath,
		metadataPath: metadataPath,
	}
}

// Acquire returns the loaded session, loading it on first call.
func (h *Handle) Acquire() (*Session, error) {
	h.once.Do(func() {
		h.session, h.err = NewSession(h.modelPath, h.metadataPath)
		if h.err == nil {
			h.loaded.Store(true)
		}
	})
	return h.session, h.err
}

// Loaded reports whether a usable session exists without triggering a load.
// Safe to call while a first Acquire is in progress.
func (h *Handle) Loaded() bool {
	return h.loaded.Load()
}

func (h *Handle) Close() {
	if h.Loaded() {
		h.session.Close()
	}
}
