// Package storage provides the local key/value backends a session persists into.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a key/value store kept as a single JSON object on disk.
// Every write replaces the file through a rename so a crash never leaves half
// of an update behind.
type File struct {
	mu      sync.RWMutex
	entries map[string]string
	file    string
}

// NewFile opens the store at path, loading it when the file already exists.
func NewFile(path string) (*File, error) {
	f := &File{
		entries: make(map[string]string),
		file:    path,
	}

	if _, err := os.Stat(path); err == nil {
		if err := f.load(); err != nil {
			return nil, fmt.Errorf("failed to load storage: %w", err)
		}
	}

	return f, nil
}

// Load returns the subset of keys that are present.
func (f *File) Load(_ context.Context, keys ...string) (map[string]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := f.entries[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// Save writes all entries in one file replacement.
func (f *File) Save(_ context.Context, entries map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.clone()
	for k, v := range entries {
		next[k] = v
	}
	if err := f.write(next); err != nil {
		return err
	}
	f.entries = next
	return nil
}

// Remove deletes keys in one file replacement. Missing keys are ignored.
func (f *File) Remove(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.clone()
	changed := false
	for _, k := range keys {
		if _, ok := next[k]; ok {
			delete(next, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := f.write(next); err != nil {
		return err
	}
	f.entries = next
	return nil
}

func (f *File) clone() map[string]string {
	out := make(map[string]string, len(f.entries))
	for k, v := range f.entries {
		out[k] = v
	}
	return out
}

func (f *File) write(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	dir := filepath.Dir(f.file)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.file)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), f.file)
}

func (f *File) load() error {
	data, err := os.ReadFile(f.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &f.entries); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	return nil
}
