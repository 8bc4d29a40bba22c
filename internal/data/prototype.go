package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UnitPrototype holds static data for one unit type loaded from YAML.
type UnitPrototype struct {
	Name   string           `yaml:"name"`
	Sprite string           `yaml:"sprite"`
	HP     int              `yaml:"hp"`
	Speed  int              `yaml:"speed"` // 10 = one cardinal step per 4 ticks
	Sight  int              `yaml:"sight"`
	Weapon *WeaponPrototype `yaml:"weapon"` // nil = unarmed
}

type WeaponPrototype struct {
	Range      int    `yaml:"range"`
	Damage     int    `yaml:"damage"`
	Reload     int    `yaml:"reload"`
	Projectile string `yaml:"projectile"`
}

// ProjectilePrototype is an entity type spawned by weapons.
type ProjectilePrototype struct {
	Name   string `yaml:"name"`
	Sprite string `yaml:"sprite"`
	Speed  int    `yaml:"speed"` // tiles per tick
}

type prototypeFile struct {
	Units       []UnitPrototype       `yaml:"units"`
	Projectiles []ProjectilePrototype `yaml:"projectiles"`
}

// Prototypes is the unit and projectile table, in file order.
type Prototypes struct {
	Units       []UnitPrototype
	Projectiles []ProjectilePrototype

	units       map[string]*UnitPrototype
	projectiles map[string]*ProjectilePrototype
}

func LoadPrototypes(path string) (*Prototypes, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prototypes %s: %w", path, err)
	}
	p, err := ParsePrototypes(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParsePrototypes decodes and validates a prototype table.
func ParsePrototypes(raw []byte) (*Prototypes, error) {
	var file prototypeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse prototypes: %w", err)
	}

	p := &Prototypes{
		Units:       file.Units,
		Projectiles: file.Projectiles,
		units:       make(map[string]*UnitPrototype, len(file.Units)),
		projectiles: make(map[string]*ProjectilePrototype, len(file.Projectiles)),
	}
	for i := range p.Projectiles {
		pr := &p.Projectiles[i]
		if pr.Name == "" {
			return nil, fmt.Errorf("projectile #%d: missing name", i)
		}
		if pr.Speed <= 0 {
			return nil, fmt.Errorf("projectile %q: speed must be positive", pr.Name)
		}
		if _, dup := p.projectiles[pr.Name]; dup {
			return nil, fmt.Errorf("projectile %q: duplicate name", pr.Name)
		}
		p.projectiles[pr.Name] = pr
	}
	for i := range p.Units {
		u := &p.Units[i]
		switch {
		case u.Name == "":
			return nil, fmt.Errorf("unit #%d: missing name", i)
		case u.HP <= 0:
			return nil, fmt.Errorf("unit %q: hp must be positive", u.Name)
		case u.Speed <= 0:
			return nil, fmt.Errorf("unit %q: speed must be positive", u.Name)
		case u.Sight < 0:
			return nil, fmt.Errorf("unit %q: negative sight", u.Name)
		}
		if _, dup := p.units[u.Name]; dup {
			return nil, fmt.Errorf("unit %q: duplicate name", u.Name)
		}
		if _, clash := p.projectiles[u.Name]; clash {
			return nil, fmt.Errorf("unit %q: name already used by a projectile", u.Name)
		}
		if w := u.Weapon; w != nil {
			if w.Range < 1 || w.Reload < 1 {
				return nil, fmt.Errorf("unit %q: weapon range and reload must be at least 1", u.Name)
			}
			if _, ok := p.projectiles[w.Projectile]; !ok {
				return nil, fmt.Errorf("unit %q: unknown projectile %q", u.Name, w.Projectile)
			}
		}
		p.units[u.Name] = u
	}
	return p, nil
}

// Unit returns a unit prototype, or nil if not found.
func (p *Prototypes) Unit(name string) *UnitPrototype {
	return p.units[name]
}

// Projectile returns a projectile prototype, or nil if not found.
func (p *Prototypes) Projectile(name string) *ProjectilePrototype {
	return p.projectiles[name]
}

func (p *Prototypes) Count() int {
	return len(p.Units) + len(p.Projectiles)
}
