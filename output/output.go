// Package output drives the rack from an external tick and streams mixed
// frames to a real-time device.
//
// Every tick produces as many frames as the device buffer can take. When
// device is missing or lost, the rack still advances according to the
// wall clock, so module state keeps progressing. Amplitude changes are
// limited by a damper to avoid clicks.
package output

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dudk/rack/log"
	"github.com/dudk/rack/metric"
	"github.com/dudk/rack/ringbuf"
	"github.com/dudk/rack/signal"
	"github.com/dudk/rack/value"
)

// ErrNoOpener is returned when device is reinitialized before it was ever
// opened.
var ErrNoOpener = errors.New("device was never opened")

// Mixer produces one mixed frame per call.
type Mixer interface {
	Mix(sampleRate int) (value.Frame, error)
}

// State of the output device.
type State int

const (
	// NoDevice means output is paced by wall clock.
	NoDevice State = iota
	// Initializing means device is being opened in background.
	Initializing
	// Running means output is paced by device buffer.
	Running
	// DeviceLost means device failed and output is paced by wall clock
	// until reinitialized.
	DeviceLost
)

func (s State) String() string {
	switch s {
	case NoDevice:
		return "no device"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case DeviceLost:
		return "device lost"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// OverloadPolicy defines what happens when production falls behind the
// device.
type OverloadPolicy int

const (
	// MuteOnOverload fades output to silence until it catches up.
	MuteOnOverload OverloadPolicy = iota
	// IgnoreOverload only reports the overload.
	IgnoreOverload
)

// Report describes a single tick.
type Report struct {
	Frames     int
	SampleRate int
	State      State
	Overloaded bool
}

type deviceResult struct {
	generation uint64
	device     Device
	err        error
}

// Output paces the mixer.
type Output struct {
	mixer  Mixer
	logger log.Logger
	metric *metric.Metric

	volume         float64
	muted          bool
	ringDuration   time.Duration
	fallbackRate   int
	maxCatchUp     time.Duration
	cutoff         float64
	overloadPolicy OverloadPolicy
	now            func() time.Time

	damper Damper
	ring   *ringbuf.Ring
	device Device
	state  State

	opener     Opener
	generation uint64
	pending    chan deviceResult
	wg         sync.WaitGroup

	last  time.Time
	carry float64
}

// Option configures the output.
type Option func(*Output)

// WithVolume sets initial volume.
func WithVolume(v float64) Option {
	return func(o *Output) {
		o.volume = v
	}
}

// WithMuted sets initial mute.
func WithMuted(muted bool) Option {
	return func(o *Output) {
		o.muted = muted
	}
}

// WithRingDuration sets size of the device buffer.
func WithRingDuration(d time.Duration) Option {
	return func(o *Output) {
		o.ringDuration = d
	}
}

// WithFallbackRate sets sample rate used without device.
func WithFallbackRate(sampleRate int) Option {
	return func(o *Output) {
		o.fallbackRate = sampleRate
	}
}

// WithMaxCatchUp limits the wall clock time processed by one tick.
func WithMaxCatchUp(d time.Duration) Option {
	return func(o *Output) {
		o.maxCatchUp = d
	}
}

// WithCutoff sets damper cutoff in Hz.
func WithCutoff(hz float64) Option {
	return func(o *Output) {
		o.cutoff = hz
	}
}

// WithOverloadPolicy sets overload policy.
func WithOverloadPolicy(p OverloadPolicy) Option {
	return func(o *Output) {
		o.overloadPolicy = p
	}
}

// WithClock replaces wall clock.
func WithClock(now func() time.Time) Option {
	return func(o *Output) {
		o.now = now
	}
}

// WithLogger sets logger.
func WithLogger(l log.Logger) Option {
	return func(o *Output) {
		o.logger = l
	}
}

// WithMetric sets metric of the output.
func WithMetric(m *metric.Metric) Option {
	return func(o *Output) {
		o.metric = m
	}
}

// New returns output without device.
func New(mixer Mixer, options ...Option) *Output {
	o := Output{
		mixer:        mixer,
		volume:       0.5,
		ringDuration: 150 * time.Millisecond,
		fallbackRate: 44100,
		maxCatchUp:   250 * time.Millisecond,
		cutoff:       DefaultCutoff,
		now:          time.Now,
	}
	for _, option := range options {
		option(&o)
	}
	if o.logger == nil {
		o.logger = log.With(log.GetLogger(), "output")
	}
	if o.metric == nil {
		o.metric = metric.Meter("output")
	}
	o.damper = NewCutoffDamper(o.fallbackRate, o.cutoff)
	return &o
}

// Volume returns target volume.
func (o *Output) Volume() float64 {
	return o.volume
}

// SetVolume sets target volume. Change is damped.
func (o *Output) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	o.volume = v
}

// Muted reports if output is muted.
func (o *Output) Muted() bool {
	return o.muted
}

// SetMuted mutes or unmutes output. Change is damped.
func (o *Output) SetMuted(muted bool) {
	o.muted = muted
}

// State returns device state.
func (o *Output) State() State {
	return o.state
}

// Underruns returns number of frames the current device substituted with
// silence. It's zero without device or if device doesn't count them.
func (o *Output) Underruns() int64 {
	if u, ok := o.device.(Underrunner); ok {
		return u.Underruns()
	}
	return 0
}

// Amplitude returns current damped amplitude.
func (o *Output) Amplitude() float64 {
	return o.damper.Current
}

// SampleRate returns the rate of the device or fallback rate without
// device.
func (o *Output) SampleRate() int {
	if o.device != nil {
		return o.device.SampleRate()
	}
	return o.fallbackRate
}

// Open starts initialization of the device in background. Current device
// is closed. Result is applied by one of the next ticks.
func (o *Output) Open(opener Opener) {
	o.opener = opener
	o.generation++
	o.release()
	o.switchToClock(Initializing)

	c := make(chan deviceResult, 1)
	o.pending = c
	generation := o.generation
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		d, err := opener()
		c <- deviceResult{generation: generation, device: d, err: err}
	}()
}

// Reinit tears down the device and opens it again with the last opener.
func (o *Output) Reinit() error {
	if o.opener == nil {
		return ErrNoOpener
	}
	o.logger.Info("reinitializing device")
	o.Open(o.opener)
	return nil
}

// Close closes the device and waits for background initialization.
func (o *Output) Close() error {
	o.generation++
	var err error
	if o.device != nil {
		err = o.device.Close()
		o.device = nil
	}
	o.discard()
	o.state = NoDevice
	o.wg.Wait()
	return err
}

// release closes the current device and discards pending initialization.
func (o *Output) release() {
	if o.device != nil {
		if err := o.device.Close(); err != nil {
			o.logger.Warn(fmt.Sprintf("close device: %v", err))
		}
		o.device = nil
	}
	o.discard()
}

// discard closes the device of pending initialization once it's done.
func (o *Output) discard() {
	if o.pending == nil {
		return
	}
	c := o.pending
	o.pending = nil
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if res := <-c; res.device != nil {
			res.device.Close()
		}
	}()
}

// switchToClock starts wall clock pacing from now.
func (o *Output) switchToClock(s State) {
	o.state = s
	o.last = time.Time{}
	o.carry = 0
	o.damper = Damper{MaxStep: NewCutoffDamper(o.fallbackRate, o.cutoff).MaxStep, Current: o.damper.Current}
}

// poll applies the result of device initialization.
func (o *Output) poll() {
	if o.pending == nil {
		return
	}
	var res deviceResult
	select {
	case res = <-o.pending:
		o.pending = nil
	default:
		return
	}
	if res.generation != o.generation {
		if res.device != nil {
			res.device.Close()
		}
		return
	}
	if res.err != nil {
		o.logger.Warn(fmt.Sprintf("open device: %v", res.err))
		o.switchToClock(NoDevice)
		return
	}
	sampleRate := res.device.SampleRate()
	ring := ringbuf.New(signal.FramesIn(sampleRate, o.ringDuration))
	if err := res.device.Start(ring); err != nil {
		o.logger.Warn(fmt.Sprintf("start device: %v", err))
		res.device.Close()
		o.switchToClock(NoDevice)
		return
	}
	o.device, o.ring, o.state = res.device, ring, Running
	o.damper = Damper{MaxStep: NewCutoffDamper(sampleRate, o.cutoff).MaxStep, Current: 0}
	o.logger.Info(fmt.Sprintf("device running at %d Hz", sampleRate))
}

// Tick produces frames. Device buffer bounds the amount when device is
// running, elapsed wall clock time otherwise. Tick stops early when the
// device drains the buffer while it's being filled.
func (o *Output) Tick() (Report, error) {
	o.poll()
	if o.device != nil && o.device.Failed() {
		o.logger.Warn("device failed")
		o.release()
		o.switchToClock(DeviceLost)
	}

	report := Report{State: o.state, SampleRate: o.SampleRate()}
	var frames int
	if o.device != nil {
		frames = o.ring.Free()
		report.Overloaded = frames > o.damper.Samples()
	} else {
		frames = o.elapsed(report.SampleRate)
	}

	target := o.volume
	if o.muted || (report.Overloaded && o.overloadPolicy == MuteOnOverload) {
		target = 0
	}
	last := frames
	for i := 0; i < frames; i++ {
		f, err := o.mixer.Mix(report.SampleRate)
		if err != nil {
			o.metric.Tick(report.SampleRate, report.Frames, report.Overloaded)
			return report, err
		}
		f = f.Scale(o.damper.Step(target))
		report.Frames++
		if o.device == nil {
			continue
		}
		if !o.ring.Push(f) {
			panic(fmt.Sprintf("ring buffer overflow: %d of %d frames pushed", i, frames))
		}
		// consumer drained during the tick, the rest is left to the next one
		free := o.ring.Free()
		if free > last {
			break
		}
		last = free
	}
	o.metric.Tick(report.SampleRate, report.Frames, report.Overloaded)
	return report, nil
}

// elapsed returns number of frames since the previous tick. Fraction is
// carried to the next tick.
func (o *Output) elapsed(sampleRate int) int {
	now := o.now()
	if o.last.IsZero() {
		o.last = now
		return 0
	}
	elapsed := now.Sub(o.last)
	o.last = now
	if elapsed > o.maxCatchUp {
		elapsed = o.maxCatchUp
	}
	if elapsed < 0 {
		elapsed = 0
	}
	exact := float64(sampleRate)*elapsed.Seconds() + o.carry
	frames := int(exact)
	o.carry = exact - float64(frames)
	return frames
}
