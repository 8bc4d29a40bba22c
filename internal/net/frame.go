package net

import "encoding/json"

// Frame is one tick of presentation state sent to every feed client.
type Frame struct {
	Tick      uint64     `json:"tick"`
	Digest    string     `json:"digest"`
	Drawables []Drawable `json:"drawables"`
	Debug     Debug      `json:"debug"`
	Paths     []Path     `json:"paths,omitempty"`
	Chunks    []Chunk    `json:"chunks,omitempty"`
	Sight     []Area     `json:"sight,omitempty"`
}

// Drawable is one sprite on the map. OffsetX/OffsetY are the sub-tile
// displacement of a unit between two tiles, in 1/100 of a tile.
type Drawable struct {
	ID      uint32 `json:"id"`
	Type    string `json:"type"`
	Sprite  string `json:"sprite"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Facing  int    `json:"facing"`
	Frame   int    `json:"frame"`
	OffsetX int    `json:"ox"`
	OffsetY int    `json:"oy"`
	HP      int    `json:"hp,omitempty"`
	Force   int    `json:"force,omitempty"`
}

// Debug mirrors the feed toggles so the renderer knows which overlays
// the frame carries.
type Debug struct {
	Paths  bool `json:"paths"`
	Chunks bool `json:"chunks"`
	Sight  bool `json:"sight"`
}

type Path struct {
	Entity uint32   `json:"entity"`
	Points [][2]int `json:"points"`
}

type Chunk struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Size    int `json:"size"`
	Members int `json:"members"`
}

type Area struct {
	Entity uint32 `json:"entity"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	W      int    `json:"w"`
	H      int    `json:"h"`
}

// Encode renders the frame as the websocket text payload.
func (f *Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}
