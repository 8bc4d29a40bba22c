package world

import (
	"github.com/JakubekWeg/wc2-sub000/internal/component"
	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/JakubekWeg/wc2-sub000/internal/core/event"
	"go.uber.org/zap"
)

// Candidate is what target-selection and damage hooks see of an entity.
type Candidate struct {
	ID       ecs.EntityID
	X, Y     int
	HP       int
	Force    int
	Distance int // Chebyshev distance to the acting unit
}

// Hooks lets scripts override combat decisions. A nil Hooks uses the
// built-in rules: nearest target (lowest id on ties) and unmodified damage.
type Hooks interface {
	SelectTarget(self Candidate, candidates []Candidate) ecs.EntityID
	ProjectileDamage(source, target Candidate, base int) int
}

// Hostile reports whether other is a live enemy of self.
func (s *State) Hostile(self, other ecs.EntityID) bool {
	if self == other || !s.world.Alive(other) {
		return false
	}
	a, ok := s.Forces.Get(self)
	if !ok {
		return false
	}
	b, ok := s.Forces.Get(other)
	if !ok || !s.Healths.Has(other) {
		return false
	}
	return component.Hostile(*a, *b)
}

// HostilesNear returns live enemies of self within radius tiles, looked up
// through the chunk index.
func (s *State) HostilesNear(self ecs.EntityID, radius int) []ecs.EntityID {
	p, ok := s.Position(self)
	if !ok {
		return nil
	}
	var out []ecs.EntityID
	for _, id := range s.chunks.EntitiesWithinCoarse(p.X-radius, p.Y-radius, 2*radius+1, 2*radius+1) {
		q, ok := s.Position(id)
		if !ok || component.Chebyshev(p, q) > radius {
			continue
		}
		if s.Hostile(self, id) {
			out = append(out, id)
		}
	}
	return out
}

// SelectTarget picks one of the hostile candidates, or 0 if none is hostile.
func (s *State) SelectTarget(self ecs.EntityID, candidates []ecs.EntityID) ecs.EntityID {
	me := s.candidate(self, self)
	var pool []Candidate
	for _, id := range candidates {
		if s.Hostile(self, id) {
			pool = append(pool, s.candidate(self, id))
		}
	}
	if len(pool) == 0 {
		return 0
	}
	if s.hooks != nil {
		picked := s.hooks.SelectTarget(me, pool)
		for _, c := range pool {
			if c.ID == picked {
				return picked
			}
		}
		if picked != 0 {
			s.log.Debug("select_target hook returned a non-candidate",
				zap.Uint32("entity", uint32(self)),
				zap.Uint32("picked", uint32(picked)))
		}
	}
	best := pool[0]
	for _, c := range pool[1:] {
		if c.Distance < best.Distance || (c.Distance == best.Distance && c.ID < best.ID) {
			best = c
		}
	}
	return best.ID
}

// ProjectileDamage resolves the damage a projectile deals on hit.
func (s *State) ProjectileDamage(source, target ecs.EntityID, base int) int {
	if s.hooks == nil {
		return base
	}
	return max(0, s.hooks.ProjectileDamage(s.candidate(target, source), s.candidate(source, target), base))
}

func (s *State) candidate(from, id ecs.EntityID) Candidate {
	c := Candidate{ID: id}
	if p, ok := s.Position(id); ok {
		c.X, c.Y = p.X, p.Y
		if q, ok := s.Position(from); ok {
			c.Distance = component.Chebyshev(p, q)
		}
	}
	if h, ok := s.Healths.Get(id); ok {
		c.HP = h.HP
	}
	if f, ok := s.Forces.Get(id); ok {
		c.Force = f.ID
	}
	return c
}

// ApplyDamage subtracts dmg from target's health. When health runs out the
// target is queued for removal and EntityDied is emitted; killed reports
// that. Must run inside a tick.
func (s *State) ApplyDamage(target, source ecs.EntityID, dmg int) (killed bool) {
	if !s.world.Alive(target) {
		return false
	}
	h, ok := s.Healths.Get(target)
	if !ok {
		return false
	}
	h.HP -= dmg
	if !h.Dead() {
		return false
	}
	force := 0
	if f, ok := s.Forces.Get(target); ok {
		force = f.ID
	}
	s.world.RemoveEntity(target)
	event.Emit(s.bus, event.EntityDied{Entity: target, Killer: source, Force: force})
	s.log.Debug("entity died",
		zap.Uint32("entity", uint32(target)),
		zap.Uint32("killer", uint32(source)))
	return true
}
