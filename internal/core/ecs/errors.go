package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrLifecycle marks an API call made in the wrong world phase.
	ErrLifecycle = errors.New("ecs: lifecycle violation")

	ErrDuplicateType     = errors.New("ecs: duplicate entity type")
	ErrEmptyComponents   = errors.New("ecs: entity type has no components")
	ErrUnknownEntityType = errors.New("ecs: unknown entity type")
	ErrDuplicateEntityID = errors.New("ecs: entity id already in use")
)

// LifecycleError is the panic payload for phase violations. These indicate a
// wiring defect in the caller and are never recovered inside the simulation.
type LifecycleError struct {
	Op     string
	Reason string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("ecs: %s: %s", e.Op, e.Reason)
}

func (e *LifecycleError) Unwrap() error { return ErrLifecycle }

func violation(op, reason string) {
	panic(&LifecycleError{Op: op, Reason: reason})
}
