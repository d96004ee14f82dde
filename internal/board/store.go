package board

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when a board file does not exist.
var ErrNotFound = errors.New("board not found")

// Loader reads boards. Every call returns a fresh board the caller may
// modify.
type Loader interface {
	Load(path string) (*Board, error)
}

// Saver writes boards.
type Saver interface {
	Save(b *Board, path string) error
}

// Store keeps boards in memory by path.
type Store struct {
	mu     sync.Mutex
	boards map[string]*Board
}

func NewStore() *Store {
	return &Store{boards: make(map[string]*Board)}
}

// Put registers a copy of b under path.
func (s *Store) Put(path string, b *Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[path] = b.Clone()
}

func (s *Store) Load(path string) (*Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[path]
	if !ok {
		return nil, fmt.Errorf("failed to load %s: %w", path, ErrNotFound)
	}
	return b.Clone(), nil
}

func (s *Store) Save(b *Board, path string) error {
	s.Put(path, b)
	return nil
}
