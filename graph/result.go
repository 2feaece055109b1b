package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrSameInstance is returned when ports of one instance are connected.
	ErrSameInstance = errors.New("ports belong to the same instance")
	// ErrIncompatible is returned when ports can't be connected: wrong
	// direction or value types without registered conversion.
	ErrIncompatible = errors.New("incompatible ports")
	// ErrCyclicDependency is returned when instances can't be ordered.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrInputConnected is returned when value is staged on a connected input.
	ErrInputConnected = errors.New("input is connected")
	// ErrUnknownInstance is returned when handle isn't added to the graph.
	ErrUnknownInstance = errors.New("unknown instance")
	// ErrUnknownPort is returned when port isn't declared by the instance.
	ErrUnknownPort = errors.New("unknown port")
	// ErrDuplicateInstance is returned when handle is added twice.
	ErrDuplicateInstance = errors.New("duplicate instance")
)

// Status of the connection check.
type Status int

const (
	// OK means ports can be connected.
	OK Status = iota
	// Replace means ports can be connected, but existing edge into the
	// input will be removed.
	Replace
	// SameInstance means both ports belong to one instance.
	SameInstance
	// Incompatible means ports can't be connected.
	Incompatible
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Replace:
		return "replace"
	case SameInstance:
		return "same instance"
	case Incompatible:
		return "incompatible"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result of the connection check.
type Result struct {
	Status Status
	// Replaced is the current source of the input if Status is Replace.
	Replaced Port
}

// Err returns sentinel error for rejected statuses.
func (r Result) Err() error {
	switch r.Status {
	case SameInstance:
		return ErrSameInstance
	case Incompatible:
		return ErrIncompatible
	}
	return nil
}

// ConnectError is returned when connection is rejected.
type ConnectError struct {
	From Port
	To   Port
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %v to %v: %v", e.From, e.To, e.Err)
}

// Unwrap returns the reason.
func (e *ConnectError) Unwrap() error {
	return e.Err
}
