package sim

import (
	coresys "github.com/brandon-schabel/td-engine-sub006/internal/core/system"
)

// CleanupSystem flushes the deferred destruction queue. Entities marked
// during earlier phases stay iterable until this point, so every system in a
// tick sees the same population.
type CleanupSystem struct {
	w *World
}

func NewCleanupSystem(w *World) *CleanupSystem { return &CleanupSystem{w: w} }

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(dt float64) {
	s.w.ECS.FlushDestroyQueue()
}
