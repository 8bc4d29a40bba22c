package ai

import "github.com/JakubekWeg/wc2-sub000/internal/core/ecs"

// MoveCommand orders a unit to walk to a tile.
type MoveCommand struct {
	X, Y int
}

// AttackCommand orders a unit to attack an entity until it dies.
type AttackCommand struct {
	Target ecs.EntityID
}

// StopCommand drops whatever the unit is doing.
type StopCommand struct{}

func (MoveCommand) CommandName() string   { return "move" }
func (AttackCommand) CommandName() string { return "attack" }
func (StopCommand) CommandName() string   { return "stop" }
