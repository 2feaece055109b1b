package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/rack/config"
)

func TestDefault(t *testing.T) {
	c := config.Default()
	assert.NoError(t, c.Validate())
	assert.Equal(t, 0.5, c.Output.Volume)
	assert.Equal(t, 150*time.Millisecond, c.Output.RingDuration.Duration)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		check  func(*testing.T, config.Config)
		errIs  error
		anyErr bool
	}{
		{
			name: "override",
			data: `
[output]
volume = 0.8
ring_duration = "200ms"
mute_on_overload = false

[device]
driver = "none"
`,
			check: func(t *testing.T, c config.Config) {
				assert.Equal(t, 0.8, c.Output.Volume)
				assert.Equal(t, 200*time.Millisecond, c.Output.RingDuration.Duration)
				assert.False(t, c.Output.MuteOnOverload)
				assert.Equal(t, "none", c.Device.Driver)
				// untouched values keep defaults
				assert.Equal(t, 44100, c.Output.FallbackRate)
				assert.Equal(t, 256, c.Device.FramesPerBuffer)
			},
		},
		{
			name:  "invalid driver",
			data:  "[device]\ndriver = \"alsa\"\n",
			errIs: config.ErrInvalid,
		},
		{
			name:  "invalid bit depth",
			data:  "[render]\nbit_depth = 24\n",
			errIs: config.ErrInvalid,
		},
		{
			name:  "zero catch up",
			data:  "[output]\nmax_catch_up = \"0s\"\n",
			errIs: config.ErrInvalid,
		},
		{
			name:  "negative catch up",
			data:  "[output]\nmax_catch_up = \"-10ms\"\n",
			errIs: config.ErrInvalid,
		},
		{
			name:   "bad duration",
			data:   "[output]\nring_duration = \"soon\"\n",
			anyErr: true,
		},
		{
			name:   "syntax",
			data:   "[output\n",
			anyErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rack.toml")
			require.NoError(t, os.WriteFile(path, []byte(test.data), 0o644))
			c, err := config.Load(path)
			switch {
			case test.errIs != nil:
				assert.ErrorIs(t, err, test.errIs)
			case test.anyErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				test.check(t, c)
			}
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
