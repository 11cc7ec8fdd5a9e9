// Package filestore persists the referral as a small JSON file.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fd1az/sam-client/business/referral/app"
	"github.com/fd1az/sam-client/business/referral/domain"
)

var _ app.Store = (*Store)(nil)

// Store keeps the referral in a JSON file. It is safe for concurrent use
// within one process.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a Store at path. The file is created on first write.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) Get(_ context.Context) (domain.Referral, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) SetIfAbsent(_ context.Context, ref domain.Referral) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok, err := s.read(); err != nil {
		return false, err
	} else if ok {
		return false, nil
	}

	data, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshal referral: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return false, fmt.Errorf("create dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return false, fmt.Errorf("write referral: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return false, fmt.Errorf("replace referral: %w", err)
	}
	return true, nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove referral: %w", err)
	}
	return nil
}

func (s *Store) read() (domain.Referral, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Referral{}, false, nil
	}
	if err != nil {
		return domain.Referral{}, false, fmt.Errorf("read referral: %w", err)
	}

	var ref domain.Referral
	if err := json.Unmarshal(data, &ref); err != nil {
		return domain.Referral{}, false, fmt.Errorf("decode referral %s: %w", s.path, err)
	}
	return ref, true, nil
}
