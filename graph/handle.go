package graph

import (
	"fmt"

	"github.com/rs/xid"

	"github.com/dudk/rack/module"
)

// Handle identifies a live module instance. The zero Handle is not valid.
type Handle struct {
	id xid.ID
}

// NewHandle returns a new unique handle.
func NewHandle() Handle {
	return Handle{id: xid.New()}
}

// IsZero reports if the handle was not created with NewHandle.
func (h Handle) IsZero() bool {
	return h.id == xid.ID{}
}

// String returns the full identifier.
func (h Handle) String() string {
	return h.id.String()
}

// Short returns the counter part of the identifier, which is enough to
// tell instances of one process apart.
func (h Handle) Short() string {
	s := h.id.String()
	return s[len(s)-6:]
}

// Port addresses one port on one instance.
type Port struct {
	ID       module.PortID
	Instance Handle
}

// PortOf returns the port of instance.
func PortOf(h Handle, p module.Port) Port {
	return Port{ID: p.ID(), Instance: h}
}

func (p Port) String() string {
	return fmt.Sprintf("%s.%s", p.Instance.Short(), p.ID.Role)
}

// Edge is a single connection from output to input.
type Edge struct {
	From Port
	To   Port
}
