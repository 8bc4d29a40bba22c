package system

import (
	"time"

	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/JakubekWeg/wc2-sub000/internal/core/event"
	coresys "github.com/JakubekWeg/wc2-sub000/internal/core/system"
	"github.com/JakubekWeg/wc2-sub000/internal/pathfind"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
)

// ProjectileSystem flies projectiles toward their target's current tile,
// ignoring terrain. On arrival the projectile is removed and ProjectileHit
// is emitted; damage lands next tick. A projectile whose target died flies
// on to the last known tile and vanishes there. Phase 3 (PostUpdate).
type ProjectileSystem struct {
	world *world.State
}

func NewProjectileSystem(ws *world.State) *ProjectileSystem {
	return &ProjectileSystem{world: ws}
}

func (s *ProjectileSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *ProjectileSystem) Update(_ time.Duration) {
	s.world.EachProjectile(func(id ecs.EntityID) {
		if s.world.Alive(id) {
			s.advance(id)
		}
	})
}

func (s *ProjectileSystem) advance(id ecs.EntityID) {
	ws := s.world
	p := ws.Projectiles.MustGet(id)
	if t, ok := ws.Position(p.Target); ok && ws.Alive(p.Target) {
		p.DestX, p.DestY = t.X, t.Y
	}

	pos, _ := ws.Position(id)
	x, y := pos.X, pos.Y
	for step := 0; step < max(1, p.Speed); step++ {
		d, ok := pathfind.Toward(p.DestX-x, p.DestY-y)
		if !ok {
			break
		}
		x, y = pathfind.Apply(x, y, d)
		ws.Drawables.MustGet(id).Facing = int(d)
	}
	if x != pos.X || y != pos.Y {
		ws.SetPosition(id, x, y)
	}
	if x != p.DestX || y != p.DestY {
		return
	}

	ws.World().RemoveEntity(id)
	if !ws.Alive(p.Target) {
		return
	}
	event.Emit(ws.Bus(), event.ProjectileHit{
		Projectile: id,
		Source:     p.Source,
		Target:     p.Target,
		Damage:     ws.ProjectileDamage(p.Source, p.Target, p.Damage),
	})
}
