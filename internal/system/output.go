package system

import (
	"fmt"
	"time"

	"github.com/JakubekWeg/wc2-sub000/internal/component"
	"github.com/JakubekWeg/wc2-sub000/internal/config"
	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	coresys "github.com/JakubekWeg/wc2-sub000/internal/core/system"
	"github.com/JakubekWeg/wc2-sub000/internal/net"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
	"go.uber.org/zap"
)

// Publisher receives one presentation frame per tick.
type Publisher interface {
	Broadcast(f *net.Frame) error
}

// OutputSystem builds the presentation frame from committed state and hands
// it to the feed. Phase 4 (Output).
type OutputSystem struct {
	world *world.State
	pub   Publisher
	debug net.Debug
	log   *zap.Logger
}

func NewOutputSystem(ws *world.State, pub Publisher, cfg config.FeedConfig, log *zap.Logger) *OutputSystem {
	return &OutputSystem{
		world: ws,
		pub:   pub,
		debug: net.Debug{Paths: cfg.DebugPaths, Chunks: cfg.DebugChunks, Sight: cfg.DebugSight},
		log:   log,
	}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	if err := s.pub.Broadcast(s.Frame()); err != nil {
		s.log.Error("feed broadcast failed", zap.Error(err))
	}
}

// Frame snapshots the current tick for the renderer.
func (s *OutputSystem) Frame() *net.Frame {
	ws := s.world
	f := &net.Frame{
		Tick:   ws.Tick(),
		Digest: fmt.Sprintf("%016x", ws.Digest()),
		Debug:  s.debug,
	}

	ecs.Each2(ws.Positions, ws.Drawables, func(id ecs.EntityID, p *component.Position, d *component.Drawable) {
		e, ok := ws.World().Lookup(id)
		if !ok {
			return
		}
		dr := net.Drawable{
			ID:      uint32(id),
			Type:    e.Type.Name(),
			Sprite:  d.Sprite,
			X:       p.X,
			Y:       p.Y,
			Facing:  d.Facing,
			Frame:   d.Frame,
			OffsetX: d.OffsetX,
			OffsetY: d.OffsetY,
		}
		if h, ok := ws.Healths.Get(id); ok {
			dr.HP = h.HP
		}
		if fc, ok := ws.Forces.Get(id); ok {
			dr.Force = fc.ID
		}
		f.Drawables = append(f.Drawables, dr)
	})

	if s.debug.Sight {
		ws.Sights.Each(func(id ecs.EntityID, sight *component.Sight) {
			p, ok := ws.Position(id)
			if !ok {
				return
			}
			f.Sight = append(f.Sight, net.Area{
				Entity: uint32(id),
				X:      p.X - sight.Range,
				Y:      p.Y - sight.Range,
				W:      2*sight.Range + 1,
				H:      2*sight.Range + 1,
			})
		})
	}

	if s.debug.Paths {
		for _, dp := range ws.DebugPaths() {
			pts := make([][2]int, len(dp.Points))
			for i, pt := range dp.Points {
				pts[i] = [2]int{pt.X, pt.Y}
			}
			f.Paths = append(f.Paths, net.Path{Entity: uint32(dp.Entity), Points: pts})
		}
	}

	if s.debug.Chunks {
		size := ws.Chunks().Size()
		for _, c := range ws.Chunks().Chunks() {
			cx, cy := c.Key.Coords()
			f.Chunks = append(f.Chunks, net.Chunk{X: cx * size, Y: cy * size, Size: size, Members: c.Len()})
		}
	}
	return f
}
