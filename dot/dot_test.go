package dot_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/rack"
	"github.com/dudk/rack/dot"
	"github.com/dudk/rack/graph"
	"github.com/dudk/rack/loader"
	"github.com/dudk/rack/log"
	"github.com/dudk/rack/modules"
)

func testRack(t *testing.T) (*rack.Rack, graph.Handle, graph.Handle) {
	t.Helper()
	r, err := rack.New(rack.WithLogger(log.Silent()), rack.WithModules(modules.All(loader.New(loader.WithLogger(log.Silent())))...))
	require.NoError(t, err)
	osc, err := r.AddModule(modules.OscillatorModule.Kind)
	require.NoError(t, err)
	out, err := r.AddModule(modules.AudioModule.Kind)
	require.NoError(t, err)
	_, err = r.Connect(graph.PortOf(osc, modules.OscillatorSample), graph.PortOf(out, modules.AudioIn))
	require.NoError(t, err)
	return r, osc, out
}

func TestToDOT(t *testing.T) {
	r, osc, out := testRack(t)
	s := dot.ToDOT(r)
	assert.True(t, strings.HasPrefix(s, "digraph rack {"))
	assert.Contains(t, s, osc.Short())
	assert.Contains(t, s, "Oscillator")
	assert.Contains(t, s, "sine")
	assert.Contains(t, s, "fillcolor=lightgrey")
	assert.Contains(t, s, `"`+osc.String()+`" -> "`+out.String()+`"`)
	assert.Contains(t, s, `oscillator.sample → audio.in\nfloat → frame`)
	assert.Equal(t, 1, strings.Count(s, "->"))
	assert.NotContains(t, s, "subgraph")
}

func TestToDOTPanels(t *testing.T) {
	r, _, _ := testRack(t)
	scope, err := r.AddModuleTo(modules.ScopeModule.Kind, 1)
	require.NoError(t, err)
	s := dot.ToDOT(r)
	assert.Contains(t, s, "subgraph cluster_0 {")
	assert.Contains(t, s, "subgraph cluster_1 {")
	assert.Contains(t, s, `label="panel 1"`)
	assert.True(t, strings.Index(s, "cluster_1") < strings.Index(s, scope.String()))
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering is slow")
	}
	r, _, _ := testRack(t)
	svg, err := dot.RenderSVG(context.Background(), dot.ToDOT(r))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	_, err = dot.RenderSVG(context.Background(), "digraph {")
	assert.Error(t, err)
}
