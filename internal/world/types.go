package world

import (
	"encoding/json"
	"fmt"

	"github.com/JakubekWeg/wc2-sub000/internal/ai"
	"github.com/JakubekWeg/wc2-sub000/internal/component"
	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/JakubekWeg/wc2-sub000/internal/data"
	"github.com/JakubekWeg/wc2-sub000/internal/pathfind"
)

// registerTypes composes one entity type per prototype. Projectiles come
// first so that weapons always name a registered type.
func (s *State) registerTypes(protos *data.Prototypes) error {
	for i := range protos.Projectiles {
		p := &protos.Projectiles[i]
		t := ecs.NewTypeComposer(p.Name).With(
			s.positionTrait(),
			payloadTrait(component.IDDrawable, s.Drawables, true, func() component.Drawable {
				return component.Drawable{Sprite: p.Sprite}
			}),
			payloadTrait(component.IDProjectile, s.Projectiles, true, func() component.Projectile {
				return component.Projectile{Speed: p.Speed}
			}),
		).Build()
		if err := s.world.RegisterEntityType(t); err != nil {
			return err
		}
	}

	for i := range protos.Units {
		u := &protos.Units[i]
		c := ecs.NewTypeComposer(u.Name).With(
			s.positionTrait(),
			payloadTrait(component.IDDrawable, s.Drawables, true, func() component.Drawable {
				return component.Drawable{Sprite: u.Sprite, Facing: int(pathfind.South)}
			}),
			payloadTrait(component.IDForce, s.Forces, true, func() component.Force { return component.Force{} }),
			payloadTrait(component.IDHealth, s.Healths, true, func() component.Health {
				return component.Health{HP: u.HP, Max: u.HP}
			}),
			payloadTrait(component.IDMover, s.Movers, false, func() component.Mover {
				return component.Mover{Speed: u.Speed}
			}),
			payloadTrait(component.IDSight, s.Sights, false, func() component.Sight {
				return component.Sight{Range: u.Sight}
			}),
		).Tag(component.IDOccupant)
		if w := u.Weapon; w != nil {
			c.With(payloadTrait(component.IDWeapon, s.Weapons, false, func() component.Weapon {
				return component.Weapon{Range: w.Range, Damage: w.Damage, Reload: w.Reload, Projectile: w.Projectile}
			}))
		}
		c.With(s.brainTrait())
		if err := s.world.RegisterEntityType(c.Build()); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) positionTrait() ecs.Trait {
	return payloadTrait(component.IDPosition, s.Positions, true, func() component.Position {
		return component.Position{}
	})
}

// payloadTrait stores a fresh value from init on spawn. When saved is set the
// payload round-trips through the component's save key, which a save must
// carry; static payloads are rebuilt from the prototype on load.
func payloadTrait[T any](c ecs.ComponentID, store *ecs.PtrComponentStore[T], saved bool, init func() T) ecs.Trait {
	key := component.Name(c)
	tr := ecs.Trait{
		Component: c,
		Init: func(e *ecs.Entity) {
			v := init()
			store.Set(e.ID, &v)
		},
	}
	if !saved {
		return tr
	}
	tr.Save = func(e *ecs.Entity, out ecs.Payload) error {
		raw, err := json.Marshal(store.MustGet(e.ID))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out[key] = raw
		return nil
	}
	tr.Load = func(e *ecs.Entity, in ecs.Payload) error {
		raw, ok := in[key]
		if !ok {
			return fmt.Errorf("%s: missing: %w", key, ErrMalformedSave)
		}
		if err := json.Unmarshal(raw, store.MustGet(e.ID)); err != nil {
			return fmt.Errorf("%s: %v: %w", key, err, ErrMalformedSave)
		}
		return nil
	}
	return tr
}

func (s *State) brainTrait() ecs.Trait {
	const key = "ai"
	return ecs.Trait{
		Component: component.IDBrain,
		Init: func(e *ecs.Entity) {
			s.Brains.Set(e.ID, &Brain{
				Machine: ai.NewController[*State](s.root()),
				sight:   &sightListener{s: s, self: e.ID},
			})
		},
		Save: func(e *ecs.Entity, out ecs.Payload) error {
			frames, err := s.Brains.MustGet(e.ID).Machine.Save()
			if err != nil {
				return err
			}
			raw, err := json.Marshal(frames)
			if err != nil {
				return err
			}
			out[key] = raw
			return nil
		},
		Load: func(e *ecs.Entity, in ecs.Payload) error {
			raw, ok := in[key]
			if !ok {
				return fmt.Errorf("%s: missing: %w", key, ErrMalformedSave)
			}
			var frames []json.RawMessage
			if err := json.Unmarshal(raw, &frames); err != nil {
				return fmt.Errorf("%s: %v: %w", key, err, ErrMalformedSave)
			}
			m, err := s.states.Decode(frames)
			if err != nil {
				return fmt.Errorf("%s: %w: %w", key, ErrMalformedSave, err)
			}
			s.Brains.MustGet(e.ID).Machine = m
			return nil
		},
		PostSetup: func(e *ecs.Entity, _ ecs.Payload) error {
			m := s.Brains.MustGet(e.ID).Machine
			ctx := s.Context(e.ID)
			ctx.Machine = m
			var err error
			m.Each(func(st ai.State[*State]) {
				if ps, ok := st.(ai.PostSetupper[*State]); ok && err == nil {
					err = ps.PostSetup(ctx)
				}
			})
			return err
		},
	}
}
