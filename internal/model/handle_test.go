package model

import (
	"path/filepath"
	"sync"
	"testing"

	"growda-api/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAcquireConcurrentFirstAccess(t *testing.T) {
	dir := t.TempDir()
	h := NewHandle(filepath.Join(dir, "absent.onnx"), filepath.Join(dir, "absent.json"))

	const workers = 16
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Loaded()
			_, errs[i] = h.Acquire()
		}()
	}
	wg.Wait()

	var first *shared.InferenceError
	require.ErrorAs(t, errs[0], &first)
	assert.Equal(t, shared.KindModelUnavailable, first.Kind)

	// Initialization ran once: every caller sees the same error instance.
	for i := 1; i < workers; i++ {
		var ierr *shared.InferenceError
		require.ErrorAs(t, errs[i], &ierr)
		assert.Same(t, first, ierr)
	}
	assert.False(t, h.Loaded())
}

func TestHandleLoadedFalseBeforeAcquire(t *testing.T) {
	h := NewHandle("absent.onnx", "absent.json")
	assert.False(t, h.Loaded())
}
