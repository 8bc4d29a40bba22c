package system

import (
	"github.com/JakubekWeg/wc2-sub000/internal/core/event"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
	"go.uber.org/zap"
)

// CombatSystem applies projectile hits and keeps per-force kill counts. It
// has no phase of its own: its handlers run when EventSystem dispatches.
type CombatSystem struct {
	world *world.State
	log   *zap.Logger
	kills map[int]int // force id -> units lost
}

func NewCombatSystem(ws *world.State, bus *event.Bus, log *zap.Logger) *CombatSystem {
	s := &CombatSystem{world: ws, log: log, kills: make(map[int]int)}
	event.Subscribe(bus, s.onProjectileHit)
	event.Subscribe(bus, s.onEntityDied)
	return s
}

func (s *CombatSystem) onProjectileHit(ev event.ProjectileHit) {
	s.world.ApplyDamage(ev.Target, ev.Source, ev.Damage)
}

func (s *CombatSystem) onEntityDied(ev event.EntityDied) {
	s.kills[ev.Force]++
	s.log.Info("unit lost",
		zap.Uint32("entity", uint32(ev.Entity)),
		zap.Uint32("killer", uint32(ev.Killer)),
		zap.Int("force", ev.Force),
		zap.Int("force_losses", s.kills[ev.Force]))
}

// Losses returns how many units force has lost.
func (s *CombatSystem) Losses(force int) int { return s.kills[force] }
