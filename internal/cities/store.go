package cities

import (
	"context"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Store holds the active normalizer and swaps it atomically when the alias
// file changes. Aggregation code only ever calls Canonical; it never touches
// the file.
type Store struct {
	mu   sync.RWMutex
	n    *Normalizer
	path string
}

// NewStore returns a store backed by the alias file at path, or the built-in
// table when path is empty. A missing or invalid file at startup is an error;
// later reload failures keep the previous table.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		s.n = Default()
		return s, nil
	}

	table, err := Load(path)
	if err != nil {
		return nil, err
	}
	s.n = NewNormalizer(table)
	return s, nil
}

// Canonical resolves a raw location against the active table.
func (s *Store) Canonical(raw string) string {
	s.mu.RLock()
	n := s.n
	s.mu.RUnlock()
	return n.Canonical(raw)
}

// Reload re-reads the alias file and swaps the normalizer.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	table, err := Load(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.n = NewNormalizer(table)
	s.mu.Unlock()
	return nil
}

// Watch reloads the table whenever the alias file is rewritten. It returns
// after registering the watcher; reloads happen in the background until ctx
// is canceled. With no alias file configured it is a no-op.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if filepath.Clean(evt.Name) != filepath.Clean(s.path) {
					continue
				}
				if err := s.Reload(); err != nil {
					log.Printf("city alias reload failed, keeping previous table: %v", err)
					continue
				}
				log.Printf("city alias table reloaded from %s", s.path)
			case err := <-watcher.Errors:
				log.Printf("city alias watcher error: %v", err)
			}
		}
	}()

	// Watch the directory: editors replace files by rename, which drops a
	// watch registered on the file itself.
	return watcher.Add(filepath.Dir(s.path))
}
