// Package loader decodes audio files in background. Results are delivered
// through one-shot channels, so the caller decides when to apply them.
package loader

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dudk/rack/log"
	"github.com/dudk/rack/signal"
)

// DecodeFunc reads the file.
type DecodeFunc func(path string) (Clip, error)

// Request is a pending load. C receives exactly one Result.
type Request struct {
	ID         uuid.UUID
	Path       string
	SampleRate int
	C          <-chan Result
}

// Result of the load. Frames of the clip can be shared between requests
// of the same file and must not be modified.
type Result struct {
	ID   uuid.UUID
	Clip Clip
	Err  error
}

// Loader decodes files. Concurrent loads of one file at the same sample
// rate are decoded once.
type Loader struct {
	logger log.Logger
	decode DecodeFunc
	group  singleflight.Group
	wg     sync.WaitGroup
}

// Option configures the loader.
type Option func(*Loader)

// WithLogger sets logger of the loader.
func WithLogger(l log.Logger) Option {
	return func(loader *Loader) {
		loader.logger = l
	}
}

// WithDecoder replaces file decoder.
func WithDecoder(fn DecodeFunc) Option {
	return func(loader *Loader) {
		loader.decode = fn
	}
}

// New returns a new loader.
func New(options ...Option) *Loader {
	l := Loader{
		logger: log.With(log.GetLogger(), "loader"),
		decode: Decode,
	}
	for _, option := range options {
		option(&l)
	}
	return &l
}

// Load starts decoding of the file resampled to the sample rate.
func (l *Loader) Load(path string, sampleRate int) Request {
	c := make(chan Result, 1)
	req := Request{
		ID:         uuid.New(),
		Path:       path,
		SampleRate: sampleRate,
		C:          c,
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		key := path + "@" + strconv.Itoa(sampleRate)
		v, err, shared := l.group.Do(key, func() (interface{}, error) {
			clip, err := l.decode(path)
			if err != nil {
				return nil, err
			}
			return Clip{
				Frames:     signal.Resample(clip.Frames, clip.SampleRate, sampleRate),
				SampleRate: sampleRate,
			}, nil
		})
		if err != nil {
			l.logger.Warn(fmt.Sprintf("load %s: %v", path, err))
			c <- Result{ID: req.ID, Err: err}
			return
		}
		clip := v.(Clip)
		l.logger.Debug(fmt.Sprintf("loaded %s: %d frames shared=%v", path, len(clip.Frames), shared))
		c <- Result{ID: req.ID, Clip: clip}
	}()
	return req
}

// Wait blocks until all started loads are done.
func (l *Loader) Wait() {
	l.wg.Wait()
}
