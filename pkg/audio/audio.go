// Package audio implements playback for the sound blocks: short WAV
// effects mixed by ebiten's audio layer, and one MIDI background-music
// track synthesized from a SoundFont. Playback failures are reported to
// the caller, which logs and continues; sound never stops a running
// program.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// SampleRate is the shared output sample rate.
const SampleRate = 44100

var (
	// ErrEffectNotFound is returned when an effect file cannot be found.
	ErrEffectNotFound = errors.New("effect file not found")
	// ErrInvalidEffect is returned when an effect file cannot be decoded.
	ErrInvalidEffect = errors.New("invalid WAV file")
)

// Player plays WAV effects and MIDI music. Effects overlap freely, music
// is a single track where a new play replaces the old one.
type Player struct {
	ctx      *audio.Context
	assetDir string

	effects []*audio.Player
	music   *musicTrack

	muted bool
	mu    sync.Mutex
}

// NewPlayer creates a player resolving sound names under assetDir. The
// SoundFont is required only for music playback; with an empty path,
// effects still work and PlayMusic returns an error.
func NewPlayer(assetDir, soundFontPath string, ctx *audio.Context) (*Player, error) {
	if ctx == nil {
		ctx = audio.NewContext(SampleRate)
	}
	p := &Player{ctx: ctx, assetDir: assetDir}
	if soundFontPath != "" {
		track, err := newMusicTrack(soundFontPath, ctx)
		if err != nil {
			return nil, err
		}
		p.music = track
	}
	return p, nil
}

// PlayEffect starts the named WAV effect without blocking. Overlapping
// playback of the same effect is allowed; ebiten mixes all streams.
func (p *Player) PlayEffect(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dropFinished()

	data, err := os.ReadFile(p.resolve(name, ".wav"))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrEffectNotFound, name)
		}
		return fmt.Errorf("read effect %s: %w", name, err)
	}
	stream, err := wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidEffect, name, err)
	}
	player, err := p.ctx.NewPlayer(stream)
	if err != nil {
		return fmt.Errorf("create effect player: %w", err)
	}
	if p.muted {
		player.SetVolume(0)
	}
	player.Play()
	p.effects = append(p.effects, player)
	return nil
}

// PlayMusic starts (or restarts) background music from the named MIDI
// file. Any previous track stops first.
func (p *Player) PlayMusic(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.music == nil {
		return ErrNoSoundFont
	}
	return p.music.play(p.resolve(name, ".mid"), p.muted)
}

// StopMusic stops background music. A no-op when nothing plays.
func (p *Player) StopMusic() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.music != nil {
		p.music.stop()
	}
}

// SetMuted silences all current and future playback. Headless runs stay
// muted while block semantics are unchanged.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.muted = muted
	vol := 1.0
	if muted {
		vol = 0
	}
	for _, ep := range p.effects {
		ep.SetVolume(vol)
	}
	if p.music != nil {
		p.music.setVolume(vol)
	}
}

// Shutdown stops everything and releases the players.
func (p *Player) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ep := range p.effects {
		ep.Close()
	}
	p.effects = nil
	if p.music != nil {
		p.music.stop()
	}
}

// resolve maps a sound name to a path under the asset dir, appending the
// default extension when the name has none.
func (p *Player) resolve(name, ext string) string {
	if filepath.Ext(name) == "" {
		name += ext
	}
	if p.assetDir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.assetDir, name)
}

// dropFinished closes effect players that ran to completion. Must be
// called with p.mu held.
func (p *Player) dropFinished() {
	active := p.effects[:0]
	for _, ep := range p.effects {
		if ep.IsPlaying() {
			active = append(active, ep)
		} else {
			ep.Close()
		}
	}
	p.effects = active
}

// ActiveEffects returns the number of effect streams still playing.
func (p *Player) ActiveEffects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropFinished()
	return len(p.effects)
}

// MusicPlaying reports whether a background track is active.
func (p *Player) MusicPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.music != nil && p.music.playing()
}

// HasExt reports whether the name carries a recognized sound extension.
func HasExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".mid", ".midi":
		return true
	}
	return false
}
