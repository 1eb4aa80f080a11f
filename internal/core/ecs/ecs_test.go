package ecs

import "testing"

func TestEntityPoolGenerations(t *testing.T) {
	p := NewEntityPool()

	a := p.Create()
	b := p.Create()
	if a == b {
		t.Fatalf("distinct creates returned the same id %d", a)
	}
	if a.IsZero() || b.IsZero() {
		t.Fatal("live entity got the zero id")
	}
	if !p.Alive(a) || !p.Alive(b) {
		t.Fatal("fresh entities should be alive")
	}

	p.Destroy(a)
	if p.Alive(a) {
		t.Fatal("destroyed entity still alive")
	}

	// Freed index is reused with a bumped generation: the old handle stays
	// dead.
	c := p.Create()
	if c.Index() != a.Index() {
		t.Fatalf("expected index reuse, got index %d want %d", c.Index(), a.Index())
	}
	if c.Generation() == a.Generation() {
		t.Fatal("reused index kept its old generation")
	}
	if p.Alive(a) {
		t.Fatal("stale handle reports alive after index reuse")
	}
	if !p.Alive(c) {
		t.Fatal("reissued entity should be alive")
	}
}

func TestStoreInsertionOrder(t *testing.T) {
	type hp struct{ v int }
	s := NewStore[hp]()

	ids := []EntityID{NewEntityID(3, 0), NewEntityID(1, 0), NewEntityID(2, 0)}
	for i, id := range ids {
		s.Set(id, &hp{v: i})
	}

	var seen []EntityID
	s.Each(func(id EntityID, _ *hp) {
		seen = append(seen, id)
	})
	if len(seen) != 3 {
		t.Fatalf("iterated %d entities, want 3", len(seen))
	}
	for i := range ids {
		if seen[i] != ids[i] {
			t.Fatalf("iteration order %v, want insertion order %v", seen, ids)
		}
	}

	// Updating in place must not move the entity in the order.
	s.Set(ids[0], &hp{v: 99})
	seen = seen[:0]
	s.Each(func(id EntityID, _ *hp) { seen = append(seen, id) })
	if seen[0] != ids[0] {
		t.Fatalf("overwrite moved entity to position of %d", seen[0])
	}

	s.Remove(ids[1])
	if s.Len() != 2 {
		t.Fatalf("Len() = %d after remove, want 2", s.Len())
	}
	if _, ok := s.Get(ids[1]); ok {
		t.Fatal("removed entity still present")
	}
}

func TestWorldDeferredDestruction(t *testing.T) {
	type tag struct{}
	w := NewWorld()
	s := NewStore[tag]()
	w.Registry().Register(s)

	id := w.CreateEntity()
	s.Set(id, &tag{})

	w.MarkForDestruction(id)
	if !w.PendingDestruction(id) {
		t.Fatal("marked entity not pending")
	}
	if _, ok := s.Get(id); !ok {
		t.Fatal("marked entity should stay in stores until flush")
	}

	w.FlushDestroyQueue()
	if w.Alive(id) {
		t.Fatal("entity alive after flush")
	}
	if _, ok := s.Get(id); ok {
		t.Fatal("components not cleared on flush")
	}
	if w.PendingDestruction(id) {
		t.Fatal("queue not cleared on flush")
	}
}
