package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnsupportedFormat is returned for files beep cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

type decodeFunc func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	".wav": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(rc) },
	".ogg": vorbis.Decode,
	".oga": vorbis.Decode,
	".mp3": mp3.Decode,
}

// decoderFor picks a decoder by the file extension of path.
func decoderFor(path string) (decodeFunc, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if decode, ok := decoders[ext]; ok {
		return decode, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// decodeFile reads the whole file into memory so it can be replayed for
// every update without touching the disk.
func decodeFile(path string) (*beep.Buffer, error) {
	decode, err := decoderFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	stream, format, err := decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = stream.Close() }()

	buf := beep.NewBuffer(format)
	buf.Append(stream)
	return buf, nil
}

// Sound is the one sound a popup plays. The speaker is opened at the
// sample rate of the first file loaded; later files are resampled.
type Sound struct {
	mu     sync.Mutex
	logger *slog.Logger

	volume float64 // 0..1
	path   string
	buf    *beep.Buffer
	rate   beep.SampleRate // 0 until the speaker is open
}

// NewSound creates an empty sound at full volume.
func NewSound(logger *slog.Logger) *Sound {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sound{logger: logger, volume: 1}
}

// SetVolume sets the volume, clamped to 0..1.
func (s *Sound) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = math.Max(0, math.Min(1, volume))
}

// Volume returns the current volume.
func (s *Sound) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Load decodes path unless it is already loaded. An empty path unloads.
func (s *Sound) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == "" {
		s.path, s.buf = "", nil
		return nil
	}
	if path == s.path && s.buf != nil {
		return nil
	}

	buf, err := decodeFile(path)
	if err != nil {
		return err
	}
	if s.rate == 0 {
		rate := buf.Format().SampleRate
		if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
			return fmt.Errorf("failed to open audio output: %w", err)
		}
		s.rate = rate
	}
	s.path, s.buf = path, buf
	s.logger.Debug("sound loaded", "path", path, "sample_rate", buf.Format().SampleRate)
	return nil
}

// Unload forgets the decoded file so the next Load reads it again.
func (s *Sound) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path, s.buf = "", nil
}

// Play starts the loaded sound and returns without waiting for it.
// With nothing loaded it does nothing.
func (s *Sound) Play() error {
	s.mu.Lock()
	buf, rate, volume := s.buf, s.rate, s.volume
	s.mu.Unlock()

	if buf == nil {
		return nil
	}

	var stream beep.Streamer = buf.Streamer(0, buf.Len())
	if from := buf.Format().SampleRate; from != rate {
		stream = beep.Resample(4, from, rate, stream)
	}
	if volume < 1 {
		stream = &effects.Volume{
			Streamer: stream,
			Base:     2,
			Volume:   volumeToExponent(volume),
			Silent:   volume == 0,
		}
	}
	speaker.Play(stream)
	return nil
}

// Close stops playback and closes the audio output.
func (s *Sound) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rate != 0 {
		speaker.Close()
		s.rate = 0
	}
	s.path, s.buf = "", nil
}

// volumeToExponent maps a linear volume onto effects.Volume's base 2
// exponent: half volume is -1. Zero is treated as silent.
func volumeToExponent(volume float64) float64 {
	if volume <= 0 {
		return -10
	}
	return math.Log2(volume)
}
