package sets

// Set is a simple generic hash set for comparable keys.
// Usage: s := sets.New[string]("a","b"); s.Add("c"); if s.Has("b") {...}
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts value into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has returns true if v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Len reports the number of members.
func (s Set[T]) Len() int { return len(s) }

// Clear removes every member, keeping the backing map.
func (s Set[T]) Clear() { clear(s) }

// Missing returns the elements of order that are not in the set, preserving
// the order of the input slice.
func (s Set[T]) Missing(order []T) []T {
	out := make([]T, 0, len(order))
	for _, v := range order {
		if !s.Has(v) {
			out = append(out, v)
		}
	}
	return out
}
