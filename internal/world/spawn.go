package world

import (
	"fmt"

	"github.com/JakubekWeg/wc2-sub000/internal/component"
	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/JakubekWeg/wc2-sub000/internal/data"
	"github.com/JakubekWeg/wc2-sub000/internal/pathfind"
	"github.com/JakubekWeg/wc2-sub000/internal/tile"
	"go.uber.org/zap"
)

// SpawnUnit queues a unit of the named type on tile (x,y) for force. The
// tile is claimed until the commit writes the occupant, so two spawns in one
// tick cannot share it. Must run inside a tick.
func (s *State) SpawnUnit(typeName string, x, y, force int) (ecs.EntityID, error) {
	t, err := s.world.TypeByName(typeName)
	if err != nil {
		return 0, err
	}
	if !t.Components().Has(component.IDOccupant) {
		return 0, fmt.Errorf("%q: %w", typeName, ErrNotAUnit)
	}
	pt := pathfind.Point{X: x, Y: y}
	if !s.grid.IsWalkable(x, y) || !s.claims[pt].IsZero() {
		return 0, fmt.Errorf("spawn %s at (%d,%d): %w", typeName, x, y, tile.ErrOccupationConflict)
	}
	e := s.world.SpawnEntity(t)
	*s.Positions.MustGet(e.ID) = component.Position{X: x, Y: y}
	s.Forces.MustGet(e.ID).ID = force
	s.claims[pt] = e.ID
	return e.ID, nil
}

// SpawnProjectile fires source's weapon at target. The projectile becomes
// visible at the next commit.
func (s *State) SpawnProjectile(source, target ecs.EntityID) (ecs.EntityID, error) {
	w, ok := s.Weapons.Get(source)
	if !ok {
		return 0, fmt.Errorf("entity %d: %w", source, ErrNoWeapon)
	}
	from, ok := s.Position(source)
	if !ok {
		return 0, fmt.Errorf("entity %d has no position", source)
	}
	to, ok := s.Position(target)
	if !ok {
		return 0, fmt.Errorf("target %d has no position", target)
	}
	t, err := s.world.TypeByName(w.Projectile)
	if err != nil {
		return 0, err
	}

	e := s.world.SpawnEntity(t)
	*s.Positions.MustGet(e.ID) = from
	p := s.Projectiles.MustGet(e.ID)
	p.Source = source
	p.Target = target
	p.Damage = w.Damage
	p.DestX, p.DestY = to.X, to.Y
	if d, ok := pathfind.Toward(to.X-from.X, to.Y-from.Y); ok {
		s.Drawables.MustGet(e.ID).Facing = int(d)
	}
	return e.ID, nil
}

// ReserveTile claims (x,y) for id if the tile is free or already id's. It
// respects claims of units spawned this tick.
func (s *State) ReserveTile(x, y int, id ecs.EntityID) bool {
	if c := s.claims[pathfind.Point{X: x, Y: y}]; !c.IsZero() && c != id {
		return false
	}
	return s.grid.UpdateRegistryCheck(x, y, id)
}

// Populate spawns the map's starting units. It runs in a restore window, so
// the tick counter does not move.
func (s *State) Populate(m *data.Map) error {
	if s.world.Count() != 0 {
		return ErrNotEmpty
	}
	var err error
	s.world.Restore(func() {
		for i, u := range m.Units {
			if _, err = s.SpawnUnit(u.Type, u.X, u.Y, u.Force); err != nil {
				err = fmt.Errorf("map %q unit #%d: %w", m.Name, i, err)
				return
			}
		}
	})
	if err != nil {
		return err
	}
	s.log.Info("map populated",
		zap.String("map", m.Name),
		zap.Int("units", len(s.units.Slice())))
	return nil
}
