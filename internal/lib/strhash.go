package lib

import "sync"

// StrHasher gives a unique int to each unique string, starting at 1, in the
// order strings are first seen. It doesn't actually hash anything, it keeps a
// map of [string]int.
type StrHasher struct {
	mu      *sync.Mutex
	ids     map[string]int
	counter int
}

func NewStrHasher() *StrHasher {
	return &StrHasher{
		mu:  &sync.Mutex{},
		ids: make(map[string]int),
	}
}

// Hash returns a unique int for each unique string.
func (s *StrHasher) Hash(str string) (id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ok bool
	if id, ok = s.ids[str]; !ok {
		s.counter++
		id = s.counter
		s.ids[str] = id
	}
	return id
}

// Len is the number of distinct strings seen.
func (s *StrHasher) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}
