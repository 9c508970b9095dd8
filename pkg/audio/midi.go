package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

var (
	// ErrNoSoundFont is returned when music playback is requested without
	// a SoundFont configured.
	ErrNoSoundFont = errors.New("SoundFont file is required for music playback")
	// ErrMusicNotFound is returned when the MIDI file cannot be found.
	ErrMusicNotFound = errors.New("music file not found")
	// ErrInvalidMusic is returned when the MIDI file cannot be parsed.
	ErrInvalidMusic = errors.New("invalid MIDI file format")
)

// midiStream renders synthesized samples on demand for ebiten's audio
// player. Once stopped it returns silence rather than EOF so the player
// can be closed at any point without glitching.
type midiStream struct {
	sequencer *meltysynth.MidiFileSequencer
	stopped   bool
	mu        sync.Mutex
}

func (s *midiStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.sequencer == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	// 16-bit stereo, 4 bytes per sample frame.
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	left := make([]float32, frames)
	right := make([]float32, frames)
	s.sequencer.Render(left, right)

	for i := range frames {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return len(p), nil
}

func (s *midiStream) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// musicTrack owns the synthesizer and the single background-music player.
type musicTrack struct {
	synth  *meltysynth.Synthesizer
	ctx    *audio.Context
	stream *midiStream
	player *audio.Player
	active bool
}

func newMusicTrack(soundFontPath string, ctx *audio.Context) (*musicTrack, error) {
	sf2Data, err := os.ReadFile(soundFontPath)
	if err != nil {
		return nil, fmt.Errorf("read SoundFont %s: %w", soundFontPath, err)
	}
	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(sf2Data))
	if err != nil {
		return nil, fmt.Errorf("parse SoundFont %s: %w", soundFontPath, err)
	}
	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer: %w", err)
	}
	return &musicTrack{synth: synth, ctx: ctx}, nil
}

func (m *musicTrack) play(path string, muted bool) error {
	m.stop()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrMusicNotFound, path)
		}
		return fmt.Errorf("read music file: %w", err)
	}
	midi, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMusic, err)
	}

	sequencer := meltysynth.NewMidiFileSequencer(m.synth)
	sequencer.Play(midi, true) // background music loops
	m.stream = &midiStream{sequencer: sequencer}

	player, err := m.ctx.NewPlayer(m.stream)
	if err != nil {
		return fmt.Errorf("create music player: %w", err)
	}
	if muted {
		player.SetVolume(0)
	}
	player.Play()
	m.player = player
	m.active = true
	return nil
}

func (m *musicTrack) stop() {
	if m.stream != nil {
		m.stream.stop()
	}
	if m.player != nil {
		m.player.Close()
		m.player = nil
	}
	m.stream = nil
	m.active = false
}

func (m *musicTrack) setVolume(vol float64) {
	if m.player != nil {
		m.player.SetVolume(vol)
	}
}

func (m *musicTrack) playing() bool {
	return m.active && m.player != nil && m.player.IsPlaying()
}
