package rack

import (
	"errors"

	"github.com/dudk/rack/graph"
)

var (
	// ErrDuplicateModule is returned when module kind is registered twice.
	ErrDuplicateModule = errors.New("duplicate module kind")
	// ErrUnknownModule is returned when module kind isn't registered.
	ErrUnknownModule = errors.New("unknown module kind")
	// ErrModuleType is returned when typed handle doesn't match the module
	// produced by the factory.
	ErrModuleType = errors.New("unexpected module type")
	// ErrInvalidPanel is returned when instance is added to negative panel.
	ErrInvalidPanel = errors.New("invalid panel")
	// ErrCyclicDependency is returned when rack can't be processed because
	// instances depend on each other.
	ErrCyclicDependency = graph.ErrCyclicDependency
	// ErrUnknownInstance is returned when handle doesn't belong to the rack.
	ErrUnknownInstance = graph.ErrUnknownInstance
)
