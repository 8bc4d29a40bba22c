package ecs

// Index observes committed additions and removals of entities whose type
// carries every component in Requires().
type Index interface {
	Requires() ComponentSet
	EntityAdded(e *Entity)
	EntityRemoved(e *Entity)
}

// ModificationListener receives NotifyEntityModified calls for the component
// it was registered with.
type ModificationListener interface {
	EntityModified(e *Entity, c ComponentID)
}

// IndexFuncs adapts plain functions to the Index interface.
type IndexFuncs struct {
	Components ComponentSet
	Added      func(e *Entity)
	Removed    func(e *Entity)
}

func (f *IndexFuncs) Requires() ComponentSet { return f.Components }

func (f *IndexFuncs) EntityAdded(e *Entity) {
	if f.Added != nil {
		f.Added(e)
	}
}

func (f *IndexFuncs) EntityRemoved(e *Entity) {
	if f.Removed != nil {
		f.Removed(e)
	}
}
