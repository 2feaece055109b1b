package output_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dudk/rack/log"
	"github.com/dudk/rack/metric"
	"github.com/dudk/rack/output"
	"github.com/dudk/rack/value"
)

type constMixer struct {
	frame value.Frame
	err   error
	calls int
}

func (m *constMixer) Mix(int) (value.Frame, error) {
	m.calls++
	return m.frame, m.err
}

type fakeDevice struct {
	sampleRate int
	src        output.Source
	failed     atomic.Bool
	closed     atomic.Bool
	underruns  atomic.Int64
}

func (d *fakeDevice) Underruns() int64 { return d.underruns.Load() }

func (d *fakeDevice) SampleRate() int { return d.sampleRate }
func (d *fakeDevice) Failed() bool    { return d.failed.Load() }

func (d *fakeDevice) Start(src output.Source) error {
	d.src = src
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed.Store(true)
	return nil
}

// drain pops n frames like device callback does.
func (d *fakeDevice) drain(n int) []value.Frame {
	var frames []value.Frame
	for i := 0; i < n; i++ {
		f, ok := d.src.Pop()
		if !ok {
			d.underruns.Add(int64(n - i))
			break
		}
		frames = append(frames, f)
	}
	return frames
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newOutput(mixer output.Mixer, options ...output.Option) *output.Output {
	options = append([]output.Option{
		output.WithLogger(log.Silent()),
		output.WithMetric(metric.Meter("test.output")),
	}, options...)
	return output.New(mixer, options...)
}

// waitState ticks until the state is reached.
func waitState(t *testing.T, o *output.Output, s output.State) output.Report {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		report, err := o.Tick()
		require.NoError(t, err)
		if report.State == s {
			return report
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state %v not reached, current %v", s, o.State())
	return output.Report{}
}

func TestDamper(t *testing.T) {
	tests := []struct {
		start, target float64
	}{
		{start: 0, target: 1},
		{start: 1, target: 0},
		{start: 0.3, target: 0.31},
		{start: 0.5, target: 0.5},
	}
	for _, test := range tests {
		d := output.NewCutoffDamper(1000, 20)
		d.Current = test.start
		steps := d.StepsTo(test.target)
		prev := d.Current
		for i := 0; i < steps; i++ {
			v := d.Step(test.target)
			assert.LessOrEqual(t, abs(v-prev), d.MaxStep+1e-12)
			prev = v
		}
		assert.InDelta(t, test.target, d.Current, 1e-12)
		// settles exactly and stays there
		d.Step(test.target)
		assert.Equal(t, test.target, d.Step(test.target))
	}
	assert.Equal(t, 50, output.NewCutoffDamper(1000, 20).Samples())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestWallClock(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	m := &constMixer{frame: value.Mono(1)}
	o := newOutput(m, output.WithClock(c.now), output.WithFallbackRate(1000))

	report, err := o.Tick()
	require.NoError(t, err)
	assert.Equal(t, output.Report{State: output.NoDevice, SampleRate: 1000}, report)

	c.advance(10 * time.Millisecond)
	report, err = o.Tick()
	require.NoError(t, err)
	assert.Equal(t, 10, report.Frames)

	// catch up is limited
	c.advance(10 * time.Second)
	report, err = o.Tick()
	require.NoError(t, err)
	assert.Equal(t, 250, report.Frames)

	// fraction is carried
	total := 0
	for i := 0; i < 4; i++ {
		c.advance(2500 * time.Microsecond)
		report, err = o.Tick()
		require.NoError(t, err)
		total += report.Frames
	}
	assert.Equal(t, 10, total)
	assert.Equal(t, 270, m.calls)
}

func TestDevice(t *testing.T) {
	defer goleak.VerifyNone(t)
	m := &constMixer{frame: value.Mono(1)}
	o := newOutput(m, output.WithVolume(1))
	d := &fakeDevice{sampleRate: 1000}
	o.Open(func() (output.Device, error) { return d, nil })
	assert.Equal(t, output.Initializing, o.State())

	// device buffer is empty, so output is considered behind and muted
	report := waitState(t, o, output.Running)
	assert.Equal(t, 1000, o.SampleRate())
	assert.True(t, report.Overloaded)
	assert.Equal(t, 150, report.Frames)

	// buffer is filled, nothing to produce
	report, err := o.Tick()
	require.NoError(t, err)
	assert.False(t, report.Overloaded)
	assert.Equal(t, 0, report.Frames)

	assert.Zero(t, o.Underruns())
	frames := d.drain(200)
	assert.Len(t, frames, 150)
	for _, f := range frames {
		assert.Equal(t, value.Mono(0), f)
	}
	assert.Equal(t, int64(50), o.Underruns())
	require.NoError(t, o.Close())
	assert.True(t, d.closed.Load())
	assert.Zero(t, o.Underruns())
}

func TestDeviceRamp(t *testing.T) {
	defer goleak.VerifyNone(t)
	m := &constMixer{frame: value.Mono(1)}
	o := newOutput(m, output.WithVolume(1))
	d := &fakeDevice{sampleRate: 1000}
	o.Open(func() (output.Device, error) { return d, nil })
	report := waitState(t, o, output.Running)
	assert.True(t, report.Overloaded)

	// keep the buffer almost full
	_, err := o.Tick()
	require.NoError(t, err)
	d.drain(10)
	report, err = o.Tick()
	require.NoError(t, err)
	assert.False(t, report.Overloaded)
	assert.Equal(t, 10, report.Frames)

	frames := d.drain(150)
	require.Len(t, frames, 150)
	tail := frames[140:]
	for i, f := range tail {
		assert.InDelta(t, float64(i+1)*0.02, f.Left, 1e-9)
	}
	require.NoError(t, o.Close())
}

// drainingMixer drains the device on the given call, like a device
// callback running concurrently with the tick.
type drainingMixer struct {
	device *fakeDevice
	at     int
	calls  int
}

func (m *drainingMixer) Mix(int) (value.Frame, error) {
	m.calls++
	if m.calls == m.at {
		m.device.drain(2)
	}
	return value.Mono(1), nil
}

func TestDeviceDrainedDuringTick(t *testing.T) {
	defer goleak.VerifyNone(t)
	d := &fakeDevice{sampleRate: 1000}
	m := &drainingMixer{device: d}
	o := newOutput(m)
	o.Open(func() (output.Device, error) { return d, nil })
	waitState(t, o, output.Running)

	d.drain(10)
	m.calls, m.at = 0, 3
	report, err := o.Tick()
	require.NoError(t, err)
	assert.Equal(t, 3, report.Frames)
	assert.Equal(t, 3, m.calls)

	// the next tick fills the rest
	report, err = o.Tick()
	require.NoError(t, err)
	assert.Equal(t, 9, report.Frames)
	require.NoError(t, o.Close())
}

func TestDeviceLost(t *testing.T) {
	defer goleak.VerifyNone(t)
	c := &clock{t: time.Unix(0, 0)}
	o := newOutput(&constMixer{}, output.WithClock(c.now), output.WithFallbackRate(1000))
	d := &fakeDevice{sampleRate: 48000}
	o.Open(func() (output.Device, error) { return d, nil })
	waitState(t, o, output.Running)

	d.failed.Store(true)
	report, err := o.Tick()
	require.NoError(t, err)
	assert.Equal(t, output.DeviceLost, report.State)
	assert.Equal(t, 1000, report.SampleRate)
	assert.True(t, d.closed.Load())

	c.advance(20 * time.Millisecond)
	report, err = o.Tick()
	require.NoError(t, err)
	assert.Equal(t, 20, report.Frames)

	// reinit opens with the same opener
	d.failed.Store(false)
	require.NoError(t, o.Reinit())
	waitState(t, o, output.Running)
	require.NoError(t, o.Close())
	assert.ErrorIs(t, newOutput(&constMixer{}).Reinit(), output.ErrNoOpener)
}

func TestStaleDevice(t *testing.T) {
	defer goleak.VerifyNone(t)
	o := newOutput(&constMixer{})
	release := make(chan struct{})
	stale := &fakeDevice{sampleRate: 1000}
	o.Open(func() (output.Device, error) {
		<-release
		return stale, nil
	})
	fresh := &fakeDevice{sampleRate: 2000}
	o.Open(func() (output.Device, error) { return fresh, nil })
	close(release)

	waitState(t, o, output.Running)
	assert.Equal(t, 2000, o.SampleRate())
	require.NoError(t, o.Close())
	assert.True(t, stale.closed.Load())
	assert.Nil(t, stale.src)
}

func TestOpenError(t *testing.T) {
	defer goleak.VerifyNone(t)
	o := newOutput(&constMixer{})
	o.Open(func() (output.Device, error) { return nil, errors.New("no device") })
	waitState(t, o, output.NoDevice)
	require.NoError(t, o.Close())
}

func TestMixerError(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	errCycle := errors.New("cycle")
	o := newOutput(&constMixer{err: errCycle}, output.WithClock(c.now))
	_, err := o.Tick()
	require.NoError(t, err)
	c.advance(time.Millisecond)
	_, err = o.Tick()
	assert.ErrorIs(t, err, errCycle)
}

func TestVolume(t *testing.T) {
	o := newOutput(&constMixer{})
	assert.Equal(t, 0.5, o.Volume())
	o.SetVolume(-1)
	assert.Equal(t, 0.0, o.Volume())
	o.SetMuted(true)
	assert.True(t, o.Muted())
}
