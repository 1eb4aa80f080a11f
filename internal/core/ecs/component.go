package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Store is a generic typed component store. No reflect, no interface{};
// pure generics. Iteration follows insertion order: ticks must be
// reproducible, and Go map ranging is randomized, so the store keeps an
// ordered id slice beside the lookup map.
type Store[T any] struct {
	data  map[EntityID]*T
	order []EntityID
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data:  make(map[EntityID]*T, 64),
		order: make([]EntityID, 0, 64),
	}
}

func (s *Store[T]) Set(id EntityID, c *T) {
	if _, ok := s.data[id]; !ok {
		s.order = append(s.order, id)
	}
	s.data[id] = c
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; !ok {
		return
	}
	delete(s.data, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// Each visits components in insertion order. The callback must not add or
// remove entries; mutation during iteration goes through the world's
// deferred destruction queue instead.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for _, id := range s.order {
		fn(id, s.data[id])
	}
}

// IDs returns the ids in insertion order. The returned slice is shared;
// callers must not mutate it.
func (s *Store[T]) IDs() []EntityID {
	return s.order
}
