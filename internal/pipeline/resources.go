package pipeline

import (
	"fmt"
	"os"
	"sync"
)

// resourceSet tracks transient files created during one pipeline execution.
// Release removes every tracked file exactly once regardless of how many
// exit paths run it.
type resourceSet struct {
	mu       sync.Mutex
	paths    []string
	released bool
	remove   func(string) error
}

func newResourceSet(remove func(string) error) *resourceSet {
	if remove == nil {
		remove = os.Remove
	}

	return &resourceSet{remove: remove}
}

// track registers a file for cleanup.
func (r *resourceSet) track(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

// Release removes all tracked files. Safe to call from multiple exit paths;
// only the first call does work.
func (r *resourceSet) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true

	for _, path := range r.paths {
		_ = r.remove(path)
	}
	r.paths = nil
}

// writeTempAudio persists audio bytes to a tracked temporary file and
// returns its path.
func (r *resourceSet) writeTempAudio(audio []byte, suffix string) (string, error) {
	tmp, err := os.CreateTemp("", "talkify-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("create temp audio file: %w", err)
	}

	path := tmp.Name()
	r.track(path)

	if _, err := tmp.Write(audio); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write temp audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp audio file: %w", err)
	}

	return path, nil
}
