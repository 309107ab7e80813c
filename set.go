package collections

import "iter"

// Set is a HashMap without values. It shares the map's probing,
// tombstones and growth.
type Set[K comparable] struct {
	m HashMap[K, struct{}]
}

// Returns a new set with room for `capacity` slots, rounded as NewHashMap does.
func NewSet[K comparable](capacity int, opts ...Option[K, struct{}]) *Set[K] {
	var s Set[K]
	for _, opt := range opts {
		opt(&s.m)
	}

	s.m.init(capacity)

	return &s
}

// Puts a key in the set. Returns true if the key is new.
func (s *Set[K]) Put(key K) bool {
	_, replaced := s.m.Insert(key, struct{}{})
	return !replaced
}

// Returns true if key is in the set.
func (s *Set[K]) Has(key K) bool {
	return s.m.ContainsKey(key)
}

// Deletes a key from the set. Returns true if it was present.
func (s *Set[K]) Delete(key K) bool {
	_, ok := s.m.Remove(key)
	return ok
}

// Returns the number of keys.
func (s *Set[K]) Len() int {
	return s.m.Len()
}

// Reserve makes room for `additional` more keys.
func (s *Set[K]) Reserve(additional int) {
	s.m.Reserve(additional)
}

// Clear releases every key, keeping the capacity.
func (s *Set[K]) Clear() {
	s.m.Clear()
}

// Returns a snapshot of the underlying table's occupancy.
func (s *Set[K]) Stats() Stats {
	return s.m.Stats()
}

// All iterates over the keys in table order.
func (s *Set[K]) All() iter.Seq[K] {
	return s.m.Keys()
}

// Release releases every key and deallocates the table.
func (s *Set[K]) Release() {
	if s == nil {
		return
	}

	s.m.Release()
}
