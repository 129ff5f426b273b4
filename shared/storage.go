package shared

// Storage keeps values in stable slots. Removed slots are reused by later
// Emplace calls, so an id is only meaningful while Valid[id] holds.
type Storage[T any] struct {
	available []int // Todo: use min heap
	Valid     []bool
	Data      []T
}

func NewStorage[T any]() *Storage[T] {
	return &Storage[T]{
		make([]int, 0),
		make([]bool, 0),
		make([]T, 0),
	}
}

func (s *Storage[T]) Emplace(v T) int {
	if len(s.available) > 0 {
		id := s.available[0]
		s.available = s.available[1:]
		s.Data[id] = v
		s.Valid[id] = true
		return id
	}
	id := len(s.Data)
	s.Data = append(s.Data, v)
	s.Valid = append(s.Valid, true)
	return id
}

// Get returns the value in slot id and whether the slot is live.
func (s *Storage[T]) Get(id int) (T, bool) {
	if id < 0 || id >= len(s.Data) || !s.Valid[id] {
		var zero T
		return zero, false
	}
	return s.Data[id], true
}

// Set overwrites a live slot. It reports false for dead or unknown ids.
func (s *Storage[T]) Set(id int, v T) bool {
	if _, ok := s.Get(id); !ok {
		return false
	}
	s.Data[id] = v
	return true
}

// Remove frees slot id. Removing a dead slot is a no-op.
func (s *Storage[T]) Remove(id int) {
	if _, ok := s.Get(id); !ok {
		return
	}
	var zero T
	s.Data[id] = zero
	s.available = append(s.available, id)
	s.Valid[id] = false
}

func (s *Storage[T]) Len() int {
	return len(s.Data) - len(s.available)
}

// Each calls f for every live slot in id order.
func (s *Storage[T]) Each(f func(id int, v T)) {
	for id, ok := range s.Valid {
		if ok {
			f(id, s.Data[id])
		}
	}
}
