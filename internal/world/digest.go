package world

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Digest hashes the observable simulation state: tick, every committed
// entity's type, position, health, force and AI frame types. Two runs fed
// the same inputs produce the same digest on every tick.
func (s *State) Digest() uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		d.Write(buf[:])
	}

	put(int64(s.world.Tick()))
	for _, e := range s.world.Entities() {
		put(int64(e.ID))
		d.WriteString(e.Type.Name())
		if p, ok := s.Positions.Get(e.ID); ok {
			put(int64(p.X))
			put(int64(p.Y))
		}
		if h, ok := s.Healths.Get(e.ID); ok {
			put(int64(h.HP))
		}
		if f, ok := s.Forces.Get(e.ID); ok {
			put(int64(f.ID))
		}
		if b, ok := s.Brains.Get(e.ID); ok {
			for _, id := range b.Machine.TypeIDs() {
				d.WriteString(id)
			}
		}
	}
	return d.Sum64()
}
