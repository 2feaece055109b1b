package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/dudk/rack/signal"
	"github.com/dudk/rack/value"
)

var (
	// ErrUnsupportedFormat is returned for files with unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")
	// ErrInvalidFile is returned when file can't be decoded.
	ErrInvalidFile = errors.New("invalid file")
)

// Clip is decoded audio.
type Clip struct {
	Frames     []value.Frame
	SampleRate int
}

// Decode reads the file chosen by its extension.
func Decode(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		return DecodeWav(f)
	case ".mp3":
		return DecodeMp3(f)
	default:
		return Clip{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// DecodeWav reads PCM wav data.
func DecodeWav(r io.ReadSeeker) (Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return Clip{}, fmt.Errorf("%w: not a wav", ErrInvalidFile)
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if bitDepth != signal.BitDepth16 && bitDepth != signal.BitDepth24 && bitDepth != signal.BitDepth32 {
		return Clip{}, ErrUnsupportedBitDepth
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Clip{}, err
	}
	return Clip{
		Frames:     signal.FromInts(buf.Data, buf.Format.NumChannels, bitDepth),
		SampleRate: int(decoder.SampleRate),
	}, nil
}

// DecodeMp3 reads mp3 data. Decoder always provides 16 bit stereo.
func DecodeMp3(r io.Reader) (Clip, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	data, err := ioutil.ReadAll(decoder)
	if err != nil {
		return Clip{}, err
	}
	ints := make([]int, len(data)/2)
	for i := range ints {
		ints[i] = int(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return Clip{
		Frames:     signal.FromInts(ints, 2, signal.BitDepth16),
		SampleRate: decoder.SampleRate(),
	}, nil
}
