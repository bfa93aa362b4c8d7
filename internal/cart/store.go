// Package cart holds session-scoped cart state. Lines live only in memory,
// keyed by session id; nothing here touches the database, and a line never
// stores a price; enrichment happens at read time against the live catalog.
package cart

import "sync"

// LineKey identifies a cart line: one product in one size.
type LineKey struct {
	ProductID int64
	Size      string
}

type Line struct {
	ProductID int64
	Size      string
	Quantity  int
}

type Store struct {
	mu    sync.RWMutex
	carts map[string]map[LineKey]int
}

func NewStore() *Store {
	return &Store{carts: make(map[string]map[LineKey]int)}
}

// Quantity returns the current quantity for a line, 0 when absent.
func (s *Store) Quantity(sid string, key LineKey) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carts[sid][key]
}

// Set stores an absolute quantity; n <= 0 removes the line.
func (s *Store) Set(sid string, key LineKey, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		delete(s.carts[sid], key)
		if len(s.carts[sid]) == 0 {
			delete(s.carts, sid)
		}
		return
	}
	c := s.carts[sid]
	if c == nil {
		c = make(map[LineKey]int)
		s.carts[sid] = c
	}
	c[key] = n
}

// Remove deletes a line and reports whether it existed.
func (s *Store) Remove(sid string, key LineKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sid]
	if !ok {
		return false
	}
	if _, ok := c[key]; !ok {
		return false
	}
	delete(c, key)
	if len(c) == 0 {
		delete(s.carts, sid)
	}
	return true
}

// Lines snapshots a session's cart in no particular order; callers sort
// for display.
func (s *Store) Lines(sid string) []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.carts[sid]
	out := make([]Line, 0, len(c))
	for k, n := range c {
		out = append(out, Line{ProductID: k.ProductID, Size: k.Size, Quantity: n})
	}
	return out
}

func (s *Store) Clear(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sid)
}
