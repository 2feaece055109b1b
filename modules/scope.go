package modules

import (
	"fmt"

	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

const (
	// DefaultScopeSize is the number of captured samples.
	DefaultScopeSize = 10000
	// DefaultScopeInterval is the number of samples skipped between
	// captures.
	DefaultScopeInterval = 50000
)

var (
	// ScopeIn is the observed signal.
	ScopeIn = module.NewInput("scope.in", "Input", value.Float(0),
		module.Accept(func(f value.Frame) value.Float {
			return value.Float(f.Mono())
		}))

	// ScopeModule captures windows of its input.
	ScopeModule = module.Describe("scope", "Scope", func() module.Module {
		return NewScope(DefaultScopeSize, DefaultScopeInterval)
	}).Input(ScopeIn)
)

// Scope captures Size samples, then skips Interval samples and repeats.
type Scope struct {
	size     int
	interval int

	buffer    []float64
	points    []float64
	waited    int
	capturing bool
}

// NewScope returns scope which starts capturing immediately.
func NewScope(size, interval int) *Scope {
	if size < 1 {
		size = 1
	}
	return &Scope{
		size:      size,
		interval:  interval,
		buffer:    make([]float64, 0, size),
		capturing: true,
	}
}

// Process implements module.Module.
func (s *Scope) Process(ctx module.Context) {
	sample := float64(module.Get(ctx, ScopeIn))
	if !s.capturing {
		s.waited++
		if s.waited >= s.interval {
			s.capturing = true
			s.buffer = s.buffer[:0]
		}
		return
	}
	s.buffer = append(s.buffer, sample)
	if len(s.buffer) == s.size {
		s.points = append(s.points[:0], s.buffer...)
		s.capturing = false
		s.waited = 0
	}
}

// Points returns the last complete capture.
func (s *Scope) Points() []float64 {
	return append([]float64(nil), s.points...)
}

// Describe implements module.Describer.
func (s *Scope) Describe() string {
	if len(s.points) == 0 {
		return "waiting"
	}
	min, max := s.points[0], s.points[0]
	for _, p := range s.points {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return fmt.Sprintf("min %.2f max %.2f", min, max)
}
