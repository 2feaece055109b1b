package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

func TestComputeOrderCycle(t *testing.T) {
	in := module.NewInput("in", "In", value.Float(0))
	out := module.NewOutput[value.Float]("out", "Out")
	desc := module.Describe("node", "Node", nil).Input(in).Output(out)

	io := New(nil)
	a, b := NewHandle(), NewHandle()
	require.NoError(t, io.AddInstance(a, desc))
	require.NoError(t, io.AddInstance(b, desc))
	_, err := io.Connect(PortOf(a, out), PortOf(b, in))
	require.NoError(t, err)

	// bypass connect checks
	io.link(PortOf(b, out), PortOf(a, in))
	assert.ErrorIs(t, io.ComputeOrder(), ErrCyclicDependency)
	order, err := io.Order()
	assert.ErrorIs(t, err, ErrCyclicDependency)
	assert.Nil(t, order)
	assert.Nil(t, io.Passes())

	// removing the edge makes graph valid again
	assert.True(t, io.Disconnect(PortOf(b, out), PortOf(a, in)))
	order, err = io.Order()
	require.NoError(t, err)
	assert.Equal(t, []Handle{a, b}, order)
}
