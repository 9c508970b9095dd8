package engine

import (
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// keyName maps an ebiten key to the name used by key event handlers:
// "SPACE", "UP", "A", "1".
func keyName(k ebiten.Key) string {
	s := k.String()
	s = strings.TrimPrefix(s, "Arrow")
	s = strings.TrimPrefix(s, "Digit")
	return strings.ToUpper(s)
}

var keyByName = func() map[string]ebiten.Key {
	m := make(map[string]ebiten.Key)
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		m[keyName(k)] = k
	}
	return m
}()

// EbitenInput reads keyboard and mouse state from the running ebiten
// window.
type EbitenInput struct {
	pressed []string
	keys    []ebiten.Key

	clickX, clickY float64
	clicked        bool
}

// NewEbitenInput creates the window-backed input source.
func NewEbitenInput() *EbitenInput {
	return &EbitenInput{}
}

func (in *EbitenInput) Poll() {
	in.keys = inpututil.AppendJustPressedKeys(in.keys[:0])
	in.pressed = in.pressed[:0]
	for _, k := range in.keys {
		in.pressed = append(in.pressed, keyName(k))
	}
	in.clicked = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	if in.clicked {
		x, y := ebiten.CursorPosition()
		in.clickX, in.clickY = float64(x), float64(y)
	}
}

func (in *EbitenInput) JustPressed() []string {
	return in.pressed
}

func (in *EbitenInput) KeyDown(name string) bool {
	k, ok := keyByName[strings.ToUpper(name)]
	if !ok {
		return false
	}
	return ebiten.IsKeyPressed(k)
}

func (in *EbitenInput) JustClicked() (float64, float64, bool) {
	return in.clickX, in.clickY, in.clicked
}

// ScriptedInput replays a fixed schedule of key and mouse events, for
// headless runs and tests.
type ScriptedInput struct {
	tick    int
	presses map[int][]string
	clicks  map[int][2]float64
	held    map[string]bool

	current []string
	clickX  float64
	clickY  float64
	clicked bool
}

// NewScriptedInput creates an empty schedule.
func NewScriptedInput() *ScriptedInput {
	return &ScriptedInput{
		presses: make(map[int][]string),
		clicks:  make(map[int][2]float64),
		held:    make(map[string]bool),
	}
}

// PressAt schedules key-down events for the given tick (1-based).
func (in *ScriptedInput) PressAt(tick int, keys ...string) {
	in.presses[tick] = append(in.presses[tick], keys...)
}

// ClickAt schedules a mouse click at the given tick.
func (in *ScriptedInput) ClickAt(tick int, x, y float64) {
	in.clicks[tick] = [2]float64{x, y}
}

// Hold marks a key as held until Release.
func (in *ScriptedInput) Hold(key string) {
	in.held[strings.ToUpper(key)] = true
}

// Release clears a held key.
func (in *ScriptedInput) Release(key string) {
	delete(in.held, strings.ToUpper(key))
}

func (in *ScriptedInput) Poll() {
	in.tick++
	in.current = in.presses[in.tick]
	for _, key := range in.current {
		in.held[strings.ToUpper(key)] = true
	}
	pos, ok := in.clicks[in.tick]
	in.clicked = ok
	if ok {
		in.clickX, in.clickY = pos[0], pos[1]
	}
}

func (in *ScriptedInput) JustPressed() []string {
	return in.current
}

func (in *ScriptedInput) KeyDown(name string) bool {
	return in.held[strings.ToUpper(name)]
}

func (in *ScriptedInput) JustClicked() (float64, float64, bool) {
	return in.clickX, in.clickY, in.clicked
}
