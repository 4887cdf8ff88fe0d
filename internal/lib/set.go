package lib

import (
	"sort"
	"sync"
)

// Set of strings. It is thread-safe and can be passed by value, copies share
// the same elements.
type Set struct {
	data map[string]struct{}
	mu   *sync.RWMutex
}

func NewSet(elems ...string) Set {
	s := Set{
		data: make(map[string]struct{}, len(elems)),
		mu:   &sync.RWMutex{},
	}
	for _, e := range elems {
		s.data[e] = struct{}{}
	}
	return s
}

func (s Set) Add(elem string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[elem] = struct{}{}
}

// AddNew adds elem and reports whether it was absent before.
func (s Set) AddNew(elem string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[elem]; ok {
		return false
	}
	s.data[elem] = struct{}{}
	return true
}

func (s Set) Remove(elem string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, elem)
}

func (s Set) Contains(elem string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.data[elem]
	return exists
}

func (s Set) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Sorted returns the elements in ascending order.
func (s Set) Sorted() []string {
	s.mu.RLock()
	elements := make([]string, 0, len(s.data))
	for elem := range s.data {
		elements = append(elements, elem)
	}
	s.mu.RUnlock()

	sort.Strings(elements)
	return elements
}
