package modules

import (
	"fmt"

	"github.com/dudk/rack/loader"
	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

// SamplerKind is the kind of sampler module.
const SamplerKind = "sampler"

// SamplerOut is the played frame, silence when stopped.
var SamplerOut = module.NewOutput[value.Frame]("sampler.out", "Output")

// NewSamplerModule describes samplers which decode files with the loader.
func NewSamplerModule(l *loader.Loader) *module.Description {
	return module.Describe(SamplerKind, "Sampler", func() module.Module {
		return NewSampler(l)
	}).Output(SamplerOut)
}

// Sampler plays a clip loaded in background. Only the latest load is
// applied, results of superseded loads are dropped.
type Sampler struct {
	loader *loader.Loader

	// path requested by controller, load starts on the next Process.
	requested string
	pending   *loader.Request

	path    string
	frames  []value.Frame
	seek    int
	playing bool
	err     error
}

// NewSampler returns sampler which uses provided loader.
func NewSampler(l *loader.Loader) *Sampler {
	return &Sampler{loader: l}
}

// Load schedules loading of the file. Playback stops until it's loaded.
func (s *Sampler) Load(path string) {
	s.requested, s.path = path, path
	s.playing = false
}

// Play starts playback from the current position.
func (s *Sampler) Play() {
	if len(s.frames) > 0 {
		s.playing = true
	}
}

// Pause stops playback and keeps the position.
func (s *Sampler) Pause() {
	s.playing = false
}

// Seek moves the position.
func (s *Sampler) Seek(frame int) {
	switch {
	case frame < 0:
		frame = 0
	case frame > len(s.frames):
		frame = len(s.frames)
	}
	s.seek = frame
}

// Loading reports if load is in progress.
func (s *Sampler) Loading() bool {
	return s.pending != nil || s.requested != ""
}

// Playing reports if playback is active.
func (s *Sampler) Playing() bool {
	return s.playing
}

// Err returns the error of the last load.
func (s *Sampler) Err() error {
	return s.err
}

// Len returns number of loaded frames.
func (s *Sampler) Len() int {
	return len(s.frames)
}

// poll applies finished load without blocking.
func (s *Sampler) poll(sampleRate int) {
	if s.requested != "" {
		req := s.loader.Load(s.requested, sampleRate)
		s.pending, s.requested = &req, ""
	}
	if s.pending == nil {
		return
	}
	select {
	case res := <-s.pending.C:
		if res.ID != s.pending.ID {
			return
		}
		s.pending = nil
		s.err = res.Err
		if res.Err != nil {
			return
		}
		s.frames, s.seek = res.Clip.Frames, 0
	default:
	}
}

// Process implements module.Module.
func (s *Sampler) Process(ctx module.Context) {
	s.poll(ctx.SampleRate())
	frame := value.Silence
	if s.playing {
		if s.seek < len(s.frames) {
			frame = s.frames[s.seek]
			s.seek++
		} else {
			s.playing, s.seek = false, 0
		}
	}
	module.Set(ctx, SamplerOut, frame)
}

// Describe implements module.Describer.
func (s *Sampler) Describe() string {
	switch {
	case s.Loading():
		return "loading " + s.path
	case s.err != nil:
		return s.err.Error()
	case len(s.frames) == 0:
		return "empty"
	}
	return fmt.Sprintf("%s %d/%d", s.path, s.seek, len(s.frames))
}
