package modules

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

// ErrInvalidNote is returned when note name can't be parsed.
var ErrInvalidNote = errors.New("invalid note")

var toneNames = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Note is a tone in an octave. A4 is 440 Hz.
type Note struct {
	Tone   int
	Octave int
}

// ParseNote parses names like "C4", "F#3" or "Bb2".
func ParseNote(s string) (Note, error) {
	if len(s) < 2 {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, s)
	}
	name := strings.ToUpper(s[:1])
	rest := s[1:]
	tone := -1
	for i, t := range toneNames {
		if t == name {
			tone = i
		}
	}
	if tone < 0 {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, s)
	}
	switch rest[0] {
	case '#':
		tone++
		rest = rest[1:]
	case 'b':
		tone--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return Note{}, fmt.Errorf("%w: %q", ErrInvalidNote, s)
	}
	// normalize C-1 and B#
	if tone < 0 {
		tone += 12
		octave--
	} else if tone > 11 {
		tone -= 12
		octave++
	}
	return Note{Tone: tone, Octave: octave}, nil
}

// Frequency returns note frequency in Hz.
func (n Note) Frequency() float64 {
	offset := n.Tone + (n.Octave-4)*12 - 9
	return 440 * math.Pow(2, float64(offset)/12)
}

// Transpose returns note shifted by semitones.
func (n Note) Transpose(semitones int) Note {
	abs := n.Octave*12 + n.Tone + semitones
	octave := abs / 12
	if abs < 0 && abs%12 != 0 {
		octave--
	}
	return Note{Tone: abs - octave*12, Octave: octave}
}

func (n Note) String() string {
	return toneNames[n.Tone] + strconv.Itoa(n.Octave)
}

var (
	// KeyboardFreq is the frequency of the pressed note, zero if released.
	KeyboardFreq = module.NewOutput[value.Float]("keyboard.freq", "Frequency")
	// KeyboardGate is true while a note is pressed.
	KeyboardGate = module.NewOutput[value.Bool]("keyboard.gate", "Gate")

	// KeyboardModule converts pressed notes into frequency.
	KeyboardModule = module.Describe("keyboard", "Keyboard", func() module.Module {
		return &Keyboard{}
	}).Output(KeyboardFreq, KeyboardGate)
)

// Keyboard holds the pressed note.
type Keyboard struct {
	note    Note
	pressed bool
}

// Press starts playing the note.
func (k *Keyboard) Press(n Note) {
	k.note, k.pressed = n, true
}

// Release stops playing.
func (k *Keyboard) Release() {
	k.pressed = false
}

// Pressed returns the current note.
func (k *Keyboard) Pressed() (Note, bool) {
	return k.note, k.pressed
}

// Process implements module.Module.
func (k *Keyboard) Process(ctx module.Context) {
	var freq float64
	if k.pressed {
		freq = k.note.Frequency()
	}
	module.Set(ctx, KeyboardFreq, value.Float(freq))
	module.Set(ctx, KeyboardGate, value.Bool(k.pressed))
}

// Describe implements module.Describer.
func (k *Keyboard) Describe() string {
	if !k.pressed {
		return "released"
	}
	return k.note.String()
}
