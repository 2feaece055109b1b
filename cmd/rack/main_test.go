package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/rack/config"
	"github.com/dudk/rack/loader"
	"github.com/dudk/rack/log"
	"github.com/dudk/rack/modules"
	"github.com/dudk/rack/output"
	"github.com/dudk/rack/signal"
	"github.com/dudk/rack/value"
	"github.com/dudk/rack/wav"
)

var defaultOptions = patchOptions{freq: 440, wave: modules.Sine}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSample(t *testing.T, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.wav")
	sink, err := wav.NewSink(path, 44100, 1, signal.BitDepth16)
	require.NoError(t, err)
	data := make([]value.Frame, frames)
	for i := range data {
		data[i] = value.Mono(0.5)
	}
	require.NoError(t, sink.Write(data))
	require.NoError(t, sink.Close())
	return path
}

func TestPatches(t *testing.T) {
	for _, name := range []string{"sine", "keys", "noise", "mix"} {
		t.Run(name, func(t *testing.T) {
			s, err := newSession(log.Silent(), name, defaultOptions)
			require.NoError(t, err)
			_, err = s.rack.Order()
			require.NoError(t, err)
			frames, err := s.rack.ProcessAmount(48000, 100)
			require.NoError(t, err)
			assert.Len(t, frames, 100)
		})
	}

	_, err := newSession(log.Silent(), "unknown", defaultOptions)
	assert.Error(t, err)

	// every session owns its loader
	a, err := newSession(log.Silent(), "sine", defaultOptions)
	require.NoError(t, err)
	b, err := newSession(log.Silent(), "sine", defaultOptions)
	require.NoError(t, err)
	assert.NotSame(t, a.loader, b.loader)
}

func TestMixPatch(t *testing.T) {
	s, err := newSession(log.Silent(), "mix", patchOptions{freq: 100, wave: modules.Square})
	require.NoError(t, err)
	// both squares start low, each sink is at half volume
	f, err := s.rack.Mix(48000)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, f.Mono(), 1e-9)
}

func TestSamplerPatch(t *testing.T) {
	_, err := newSession(log.Silent(), "sampler", defaultOptions)
	assert.ErrorIs(t, err, errNoSample)

	opts := defaultOptions
	opts.sample = writeSample(t, 441)
	s, err := newSession(log.Silent(), "sampler", opts)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.prepare(ctx, 44100))
	s.loader.Wait()
	assert.True(t, s.sampler.Playing())
	assert.Equal(t, 441, s.sampler.Len())

	f, err := s.rack.Mix(44100)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, f.Mono(), 1e-3)
}

func TestRenderCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	_, err := execute(t, "render", "--patch", "sine", "--duration", "100ms", "-o", path)
	require.NoError(t, err)

	clip, err := loader.Decode(path)
	require.NoError(t, err)
	assert.Equal(t, 44100, clip.SampleRate)
	assert.InDelta(t, 4410, len(clip.Frames), 1)
	assert.True(t, clip.Frames[0].Stereo)
}

func TestRenderConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "rack.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[render]\nsample_rate = 8000\nchannels = 1\n"), 0o644))
	path := filepath.Join(dir, "out.wav")

	_, err := execute(t, "--config", cfg, "render", "-p", "noise", "-d", "1s", "-o", path)
	require.NoError(t, err)
	clip, err := loader.Decode(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, clip.SampleRate)
	assert.Len(t, clip.Frames, 8000)
	assert.False(t, clip.Frames[0].Stereo)

	require.NoError(t, os.WriteFile(cfg, []byte("[render]\nbit_depth = 12\n"), 0o644))
	_, err = execute(t, "--config", cfg, "render", "-o", path)
	assert.Error(t, err)
}

func TestModulesCommand(t *testing.T) {
	out, err := execute(t, "modules")
	require.NoError(t, err)
	for _, desc := range modules.All(loader.New(loader.WithLogger(log.Silent()))) {
		assert.Contains(t, out, desc.Kind)
	}
	assert.Contains(t, out, modules.OscillatorFreq.ID().Role)
	assert.Contains(t, out, "70.0 Hz")
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "graph", "--patch", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph rack")
	assert.Contains(t, out, "keyboard.gate → operation.b")

	_, err = execute(t, "graph", "--wave", "pulse")
	assert.Error(t, err)
}

func TestDeviceOpener(t *testing.T) {
	assert.Nil(t, deviceOpener(config.Device{Driver: "none"}))
	assert.NotNil(t, deviceOpener(config.Default().Device))
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(s)}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPlayer(t *testing.T) {
	s, err := newSession(log.Silent(), "keys", defaultOptions)
	require.NoError(t, err)
	now := time.Unix(0, 0)
	out := output.New(s.rack,
		output.WithLogger(log.Silent()),
		output.WithFallbackRate(1000),
		output.WithClock(func() time.Time { return now }),
	)
	defer out.Close()
	p := newPlayer(s, out, "keys")
	require.NotNil(t, p.Init())

	p.Update(key("+"))
	assert.InDelta(t, 0.55, out.Volume(), 1e-9)
	p.Update(key("-"))
	p.Update(key("-"))
	assert.InDelta(t, 0.45, out.Volume(), 1e-9)

	p.Update(key(" "))
	assert.True(t, out.Muted())
	p.Update(key(" "))
	assert.False(t, out.Muted())

	p.Update(key("h"))
	note, pressed := s.keyboard.Pressed()
	assert.True(t, pressed)
	assert.Equal(t, modules.Note{Tone: 9, Octave: 4}, note)
	p.Update(key("c"))
	p.Update(key("k"))
	note, _ = s.keyboard.Pressed()
	assert.Equal(t, modules.Note{Tone: 0, Octave: 6}, note)
	p.Update(key("x"))
	_, pressed = s.keyboard.Pressed()
	assert.False(t, pressed)

	p.Update(key("r"))
	assert.Equal(t, output.ErrNoOpener.Error(), p.status)

	_, cmd := p.Update(tickMsg{})
	assert.NotNil(t, cmd)
	now = now.Add(100 * time.Millisecond)
	p.Update(tickMsg{})
	assert.Equal(t, 100, p.report.Frames)
	assert.Equal(t, int64(100), p.frames)
	assert.Equal(t, output.NoDevice, p.report.State)

	view := p.View()
	assert.Contains(t, view, "rack · keys")
	assert.Contains(t, view, "Keyboard")
	assert.Contains(t, view, "octave 5")

	_, cmd = p.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", sparkline(nil, 10))
	assert.Equal(t, "▁█", sparkline([]float64{-1, 1}, 10))
	assert.Equal(t, "▁▁█", sparkline([]float64{-2, -1, -1, 1, 1, 1}, 3))
}

type countingDevice struct {
	underruns int64
}

func (d *countingDevice) SampleRate() int           { return 1000 }
func (d *countingDevice) Start(output.Source) error { return nil }
func (d *countingDevice) Failed() bool              { return false }
func (d *countingDevice) Close() error              { return nil }
func (d *countingDevice) Underruns() int64          { return d.underruns }

func TestPlayerUnderruns(t *testing.T) {
	s, err := newSession(log.Silent(), "sine", defaultOptions)
	require.NoError(t, err)
	out := output.New(s.rack, output.WithLogger(log.Silent()))
	defer out.Close()
	p := newPlayer(s, out, "sine")
	assert.NotContains(t, p.View(), "underruns")

	out.Open(func() (output.Device, error) {
		return &countingDevice{underruns: 7}, nil
	})
	deadline := time.Now().Add(time.Second)
	for p.report.State != output.Running && time.Now().Before(deadline) {
		p.Update(tickMsg{})
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, output.Running, p.report.State)
	assert.Contains(t, p.View(), "underruns 7")
}
