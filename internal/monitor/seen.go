package monitor

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// seenSet remembers the most recently seen message ids. Seeing an id again refreshes
// it; the least recently seen id is evicted at capacity.
type seenSet struct {
	c *lru.Cache[string, struct{}]
}

func newSeenSet(capacity int) (*seenSet, error) {
	c, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, err
	}
	return &seenSet{c: c}, nil
}

// Add records id and reports whether it was new.
func (s *seenSet) Add(id string) bool {
	if _, ok := s.c.Get(id); ok {
		return false
	}
	s.c.Add(id, struct{}{})
	return true
}

func (s *seenSet) Contains(id string) bool { return s.c.Contains(id) }
func (s *seenSet) Len() int                { return s.c.Len() }
