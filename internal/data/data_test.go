package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const protoYAML = `
projectiles:
  - name: arrow
    sprite: arrow
    speed: 2
units:
  - name: archer
    sprite: archer
    hp: 40
    speed: 10
    sight: 5
    weapon: {range: 4, damage: 5, reload: 8, projectile: arrow}
  - name: peasant
    sprite: peasant
    hp: 30
    speed: 8
    sight: 3
`

func TestParsePrototypes(t *testing.T) {
	p, err := ParsePrototypes([]byte(protoYAML))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Count())

	archer := p.Unit("archer")
	require.NotNil(t, archer)
	require.NotNil(t, archer.Weapon)
	assert.Equal(t, 4, archer.Weapon.Range)
	assert.Nil(t, p.Unit("peasant").Weapon)
	assert.Equal(t, 2, p.Projectile("arrow").Speed)
	assert.Nil(t, p.Unit("dragon"))
}

func TestParsePrototypesRejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"unknown projectile": `
units:
  - {name: a, hp: 1, speed: 1, weapon: {range: 1, reload: 1, projectile: rock}}`,
		"duplicate": `
units:
  - {name: a, hp: 1, speed: 1}
  - {name: a, hp: 1, speed: 1}`,
		"zero hp": `
units:
  - {name: a, hp: 0, speed: 1}`,
		"name clash": `
projectiles:
  - {name: a, speed: 1}
units:
  - {name: a, hp: 1, speed: 1}`,
		"not yaml": `units: [`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePrototypes([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestParseMap(t *testing.T) {
	m, err := ParseMap([]byte(`
name: test
width: 5
height: 3
terrain: |
  ..#..
  .##
units:
  - {type: archer, x: 0, y: 2, force: 1}
`))
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{2, 0}, {1, 1}, {2, 1}}, m.Blocked())
	require.Len(t, m.Units, 1)
	assert.Equal(t, Placement{Type: "archer", X: 0, Y: 2, Force: 1}, m.Units[0])
}

func TestParseMapRejectsBadLayouts(t *testing.T) {
	for name, src := range map[string]string{
		"empty":     "name: x\nwidth: 0\nheight: 3\n",
		"wide row":  "width: 2\nheight: 2\nterrain: \"...\"\n",
		"bad char":  "width: 2\nheight: 2\nterrain: \".x\"\n",
		"off map":   "width: 2\nheight: 2\nunits:\n  - {type: a, x: 2, y: 0}\n",
		"tall rows": "width: 2\nheight: 1\nterrain: \"..\\n..\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMap([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestShippedDataLoads(t *testing.T) {
	p, err := LoadPrototypes("../../data/yaml/prototypes.yaml")
	require.NoError(t, err)
	m, err := LoadMap("../../data/yaml/maps/crossing.yaml")
	require.NoError(t, err)

	assert.Equal(t, "crossing", m.Name)
	assert.NotEmpty(t, m.Blocked())
	for _, u := range m.Units {
		assert.NotNil(t, p.Unit(u.Type), "map places unknown unit %q", u.Type)
	}
}
