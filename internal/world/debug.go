package world

import (
	"sort"

	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/JakubekWeg/wc2-sub000/internal/pathfind"
)

// DebugPath is a planned route shown by the presentation feed.
type DebugPath struct {
	Entity ecs.EntityID
	Points []pathfind.Point
}

// RegisterDebugPath records the tiles id is about to walk, replacing any
// earlier registration.
func (s *State) RegisterDebugPath(id ecs.EntityID, points []pathfind.Point) {
	s.debugPaths[id] = points
}

func (s *State) UnregisterDebugPath(id ecs.EntityID) {
	delete(s.debugPaths, id)
}

// DebugPaths returns the registered routes ordered by entity id.
func (s *State) DebugPaths() []DebugPath {
	out := make([]DebugPath, 0, len(s.debugPaths))
	for id, pts := range s.debugPaths {
		out = append(out, DebugPath{Entity: id, Points: pts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}
