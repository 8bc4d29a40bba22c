package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Terrain characters in a map's terrain block.
const (
	terrainOpen    = '.'
	terrainBlocked = '#'
)

// Placement is one unit placed by a map at start.
type Placement struct {
	Type  string `yaml:"type"`
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
	Force int    `yaml:"force"`
}

// Map is a scenario layout: grid size, static terrain and starting units.
// Terrain rows run north to south; missing rows and columns are open.
type Map struct {
	Name    string      `yaml:"name"`
	Width   int         `yaml:"width"`
	Height  int         `yaml:"height"`
	Terrain string      `yaml:"terrain"`
	Units   []Placement `yaml:"units"`

	blocked [][2]int
}

func LoadMap(path string) (*Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	m, err := ParseMap(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func ParseMap(raw []byte) (*Map, error) {
	var m Map
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return nil, fmt.Errorf("map %q: size %dx%d is empty", m.Name, m.Width, m.Height)
	}

	rows := strings.Split(strings.TrimRight(m.Terrain, "\n"), "\n")
	if m.Terrain == "" {
		rows = nil
	}
	if len(rows) > m.Height {
		return nil, fmt.Errorf("map %q: %d terrain rows exceed height %d", m.Name, len(rows), m.Height)
	}
	for y, row := range rows {
		row = strings.TrimSpace(row)
		if len(row) > m.Width {
			return nil, fmt.Errorf("map %q: terrain row %d is wider than %d", m.Name, y, m.Width)
		}
		for x, c := range row {
			switch c {
			case terrainOpen:
			case terrainBlocked:
				m.blocked = append(m.blocked, [2]int{x, y})
			default:
				return nil, fmt.Errorf("map %q: bad terrain %q at (%d,%d)", m.Name, c, x, y)
			}
		}
	}

	for i, u := range m.Units {
		if u.X < 0 || u.Y < 0 || u.X >= m.Width || u.Y >= m.Height {
			return nil, fmt.Errorf("map %q: unit #%d (%s) at (%d,%d) is off the map", m.Name, i, u.Type, u.X, u.Y)
		}
	}
	return &m, nil
}

// Blocked returns the blocked terrain tiles in row-major order.
func (m *Map) Blocked() [][2]int {
	return m.blocked
}
