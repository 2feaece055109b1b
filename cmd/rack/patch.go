package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dudk/rack"
	"github.com/dudk/rack/graph"
	"github.com/dudk/rack/loader"
	"github.com/dudk/rack/log"
	"github.com/dudk/rack/module"
	"github.com/dudk/rack/modules"
	"github.com/dudk/rack/value"
)

var errNoSample = errors.New("sampler patch requires --sample")

// session is a built patch with controls exposed to the player.
type session struct {
	rack     *rack.Rack
	loader   *loader.Loader
	keyboard *modules.Keyboard
	sampler  *modules.Sampler
	scope    *modules.Scope
}

type patchOptions struct {
	freq   float64
	wave   modules.Wave
	sample string
}

type patch struct {
	help  string
	build func(*session, patchOptions) error
}

var patches = map[string]patch{
	"sine": {
		help:  "oscillator to output",
		build: buildSine,
	},
	"keys": {
		help:  "keyboard driven oscillator gated and filtered",
		build: buildKeys,
	},
	"noise": {
		help:  "low passed noise",
		build: buildNoise,
	},
	"mix": {
		help:  "two oscillators a fifth apart",
		build: buildMix,
	},
	"sampler": {
		help:  "sample playback",
		build: buildSampler,
	},
}

func patchNames() []string {
	names := make([]string, 0, len(patches))
	for name := range patches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newSession(logger *logrus.Logger, name string, opts patchOptions) (*session, error) {
	p, ok := patches[name]
	if !ok {
		return nil, fmt.Errorf("unknown patch %q, available: %v", name, patchNames())
	}
	l := loader.New(loader.WithLogger(log.With(logger, "loader")))
	r, err := rack.New(
		rack.WithLogger(log.With(logger, "rack")),
		rack.WithModules(modules.All(l)...),
	)
	if err != nil {
		return nil, err
	}
	s := &session{rack: r, loader: l}
	if err := p.build(s, opts); err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	return s, nil
}

// prepare waits for the sampler to load and starts playback.
func (s *session) prepare(ctx context.Context, sampleRate int) error {
	if s.sampler == nil {
		return nil
	}
	for {
		if _, err := s.rack.Process(sampleRate); err != nil {
			return err
		}
		if !s.sampler.Loading() {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	if err := s.sampler.Err(); err != nil {
		return err
	}
	s.sampler.Play()
	return nil
}

// connector joins ports and stops at the first error.
type connector struct {
	r   *rack.Rack
	err error
}

func (c *connector) connect(from graph.Handle, out module.Port, to graph.Handle, in module.Port) {
	if c.err != nil {
		return
	}
	_, c.err = c.r.Connect(graph.PortOf(from, out), graph.PortOf(to, in))
}

func (c *connector) set(h graph.Handle, in module.Port, v value.Value) {
	if c.err != nil {
		return
	}
	c.err = c.r.SetInput(graph.PortOf(h, in), v)
}

func (s *session) oscillator(w modules.Wave) (graph.Handle, error) {
	h, err := rack.Add[*modules.Oscillator](s.rack, modules.OscillatorModule)
	if err != nil {
		return graph.Handle{}, err
	}
	osc, _ := rack.ModuleOf(s.rack, h)
	osc.Wave = w
	return h.Handle, nil
}

func (s *session) withScope(src graph.Handle, out module.Port) error {
	h, err := rack.Add[*modules.Scope](s.rack, modules.ScopeModule)
	if err != nil {
		return err
	}
	s.scope, _ = rack.ModuleOf(s.rack, h)
	_, err = s.rack.Connect(graph.PortOf(src, out), graph.PortOf(h.Handle, modules.ScopeIn))
	return err
}

func buildSine(s *session, opts patchOptions) error {
	osc, err := s.oscillator(opts.wave)
	if err != nil {
		return err
	}
	out, err := s.rack.AddModule(modules.AudioModule.Kind)
	if err != nil {
		return err
	}
	c := connector{r: s.rack}
	c.set(osc, modules.OscillatorFreq, value.Float(opts.freq))
	c.connect(osc, modules.OscillatorSample, out, modules.AudioIn)
	if c.err != nil {
		return c.err
	}
	return s.withScope(osc, modules.OscillatorSample)
}

func buildKeys(s *session, opts patchOptions) error {
	kh, err := rack.Add[*modules.Keyboard](s.rack, modules.KeyboardModule)
	if err != nil {
		return err
	}
	s.keyboard, _ = rack.ModuleOf(s.rack, kh)
	osc, err := s.oscillator(opts.wave)
	if err != nil {
		return err
	}
	gate, err := rack.Add[*modules.Operation](s.rack, modules.OperationModule)
	if err != nil {
		return err
	}
	op, _ := rack.ModuleOf(s.rack, gate)
	op.Operator = modules.Mul
	filter, err := s.rack.AddModule(modules.FilterModule.Kind)
	if err != nil {
		return err
	}
	out, err := s.rack.AddModule(modules.AudioModule.Kind)
	if err != nil {
		return err
	}

	c := connector{r: s.rack}
	c.connect(kh.Handle, modules.KeyboardFreq, osc, modules.OscillatorFreq)
	c.connect(osc, modules.OscillatorSample, gate.Handle, modules.OperationA)
	c.connect(kh.Handle, modules.KeyboardGate, gate.Handle, modules.OperationB)
	c.connect(gate.Handle, modules.OperationOut, filter, modules.FilterIn)
	c.set(filter, modules.FilterCutoff, value.Float(2000))
	c.connect(filter, modules.FilterOut, out, modules.AudioIn)
	if c.err != nil {
		return c.err
	}
	return s.withScope(filter, modules.FilterOut)
}

func buildNoise(s *session, _ patchOptions) error {
	noise, err := s.rack.AddModule(modules.NoiseModule.Kind)
	if err != nil {
		return err
	}
	filter, err := s.rack.AddModule(modules.FilterModule.Kind)
	if err != nil {
		return err
	}
	out, err := s.rack.AddModule(modules.AudioModule.Kind)
	if err != nil {
		return err
	}
	c := connector{r: s.rack}
	c.connect(noise, modules.NoiseOut, filter, modules.FilterIn)
	c.set(filter, modules.FilterCutoff, value.Float(800))
	c.connect(filter, modules.FilterOut, out, modules.AudioIn)
	if c.err != nil {
		return c.err
	}
	return s.withScope(filter, modules.FilterOut)
}

func buildMix(s *session, opts patchOptions) error {
	c := connector{r: s.rack}
	for _, k := range []float64{1, 1.5} {
		osc, err := s.oscillator(opts.wave)
		if err != nil {
			return err
		}
		out, err := rack.Add[*modules.Audio](s.rack, modules.AudioModule)
		if err != nil {
			return err
		}
		sink, _ := rack.ModuleOf(s.rack, out)
		sink.Volume = 0.5
		c.set(osc, modules.OscillatorFreq, value.Float(opts.freq*k))
		c.connect(osc, modules.OscillatorSample, out.Handle, modules.AudioIn)
	}
	return c.err
}

func buildSampler(s *session, opts patchOptions) error {
	if opts.sample == "" {
		return errNoSample
	}
	sh, err := s.rack.AddModule(modules.SamplerKind)
	if err != nil {
		return err
	}
	m, _ := s.rack.Module(sh)
	s.sampler = m.(*modules.Sampler)
	s.sampler.Load(opts.sample)
	out, err := s.rack.AddModule(modules.AudioModule.Kind)
	if err != nil {
		return err
	}
	c := connector{r: s.rack}
	c.connect(sh, modules.SamplerOut, out, modules.AudioIn)
	if c.err != nil {
		return c.err
	}
	return s.withScope(sh, modules.SamplerOut)
}
