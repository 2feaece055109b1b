//go:build portaudio

package portaudio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/rack"
	"github.com/dudk/rack/graph"
	"github.com/dudk/rack/loader"
	"github.com/dudk/rack/log"
	"github.com/dudk/rack/modules"
	"github.com/dudk/rack/output"
	"github.com/dudk/rack/portaudio"
)

func TestDevice(t *testing.T) {
	r, err := rack.New(rack.WithLogger(log.Silent()), rack.WithModules(modules.All(loader.New(loader.WithLogger(log.Silent())))...))
	require.NoError(t, err)
	osc, err := r.AddModule(modules.OscillatorModule.Kind)
	require.NoError(t, err)
	sink, err := r.AddModule(modules.AudioModule.Kind)
	require.NoError(t, err)
	_, err = r.Connect(graph.PortOf(osc, modules.OscillatorSample), graph.PortOf(sink, modules.AudioIn))
	require.NoError(t, err)

	o := output.New(r, output.WithLogger(log.Silent()))
	o.Open(portaudio.Opener(0, 256))
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, err := o.Tick()
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, output.Running, o.State())
	assert.NoError(t, o.Close())
}
