package engine

import "github.com/hajimehoshi/ebiten/v2"

// InputSource abstracts keyboard and mouse state so the engine can run
// headless with scripted input.
type InputSource interface {
	// Poll latches the current frame's input state. Called once per tick
	// before events are dispatched.
	Poll()
	// JustPressed returns the names of keys that went down this tick.
	JustPressed() []string
	// KeyDown reports whether the named key is currently held.
	KeyDown(name string) bool
	// JustClicked returns the scene position of a mouse click that
	// happened this tick, if any.
	JustClicked() (x, y float64, ok bool)
}

// SoundPlayer abstracts audio output for the sound blocks.
type SoundPlayer interface {
	// PlayEffect starts a named effect without blocking. Overlapping
	// playback of the same effect is allowed.
	PlayEffect(name string) error
	// PlayMusic starts (or restarts) the single background music track.
	PlayMusic(name string) error
	// StopMusic stops background music. A no-op when nothing plays.
	StopMusic()
}

// AssetSource loads costume images on demand. A nil image with a nil
// error means the costume has no image and gets a placeholder.
type AssetSource interface {
	CostumeImage(name string) (*ebiten.Image, error)
}
