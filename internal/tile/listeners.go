package tile

import "github.com/JakubekWeg/wc2-sub000/internal/core/ecs"

// AddListenersForRect subscribes l to every tile of the rectangle clipped to
// the grid. Tiles already subscribed are left as they are.
func (g *Grid) AddListenersForRect(x, y, w, h int, l Listener) {
	g.eachClipped(x, y, w, h, func(t *Tile) { g.subscribe(t, l) })
}

// AddListenersForRectAndGet subscribes like AddListenersForRect and returns,
// in row-major order, the current occupants accepted by filter. A nil filter
// accepts every occupant.
func (g *Grid) AddListenersForRectAndGet(x, y, w, h int, l Listener, filter func(ecs.EntityID) bool) []ecs.EntityID {
	var found []ecs.EntityID
	g.eachClipped(x, y, w, h, func(t *Tile) {
		g.subscribe(t, l)
		if t.occupant != 0 && (filter == nil || filter(t.occupant)) {
			found = append(found, t.occupant)
		}
	})
	return found
}

// RemoveListenerFromAllTiles drops every subscription of l. Cost is
// proportional to l's subscription count.
func (g *Grid) RemoveListenerFromAllTiles(l Listener) {
	tiles, ok := g.subs[l]
	if !ok {
		return
	}
	for t := range tiles {
		for i, other := range t.listeners {
			if other == l {
				t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
				break
			}
		}
	}
	delete(g.subs, l)
}

// Subscriptions returns how many tiles l listens to.
func (g *Grid) Subscriptions(l Listener) int {
	return len(g.subs[l])
}

// ListenerCount returns how many listeners are subscribed to (x, y).
func (g *Grid) ListenerCount(x, y int) int {
	if !g.InBounds(x, y) {
		return 0
	}
	return len(g.at(x, y).listeners)
}

func (g *Grid) subscribe(t *Tile, l Listener) {
	tiles := g.subs[l]
	if tiles == nil {
		tiles = make(map[*Tile]struct{})
		g.subs[l] = tiles
	}
	if _, dup := tiles[t]; dup {
		return
	}
	tiles[t] = struct{}{}
	t.listeners = append(t.listeners, l)
}

func (g *Grid) eachClipped(x, y, w, h int, fn func(*Tile)) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, g.width), min(y+h, g.height)
	for ty := y0; ty < y1; ty++ {
		for tx := x0; tx < x1; tx++ {
			fn(g.at(tx, ty))
		}
	}
}
