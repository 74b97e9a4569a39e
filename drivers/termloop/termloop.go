/*
	Copyright 2015 Franc[e]sco (lolisamurai@tfwno.gf)
	This file is part of go-hachi.
	go-hachi is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.
	go-hachi is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.
	You should have received a copy of the GNU General Public License
	along with go-hachi. If not, see <http://www.gnu.org/licenses/>.
*/

// Package termloop implements a terminal driver for hachi on top of termloop.
//
// The screen is drawn with half-block characters, two pixels per cell, next
// to the register state. Terminals only report key presses, so keys are
// released automatically 100ms after their last press.
//
// Keypad layout (same as the ebiten driver):
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  q w e r
//	7 8 9 E      a s d f
//	A 0 B F      z x c v
//
// Arrow keys double as 2, 4, 6 and 8, Enter as 5. Escape quits.
//
// Settable data (SetData): "mute" (bool), "key_map" (map[termloop.Key]uint8),
// "rune_map" (map[rune]uint8).
package termloop

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/Francesco149/go-hachi8/drivers/beeper"
	"github.com/Francesco149/go-hachi8/hachi"
	tl "github.com/JoelOtter/termloop"
	"github.com/retroenv/retrogolib/log"
)

const keyReleaseDelay = 100 * time.Millisecond

// screen preview position
const screenX, screenY = 0, 3

// DefaultKeyMap maps special terminal keys to CHIP-8 key numbers.
var DefaultKeyMap = map[tl.Key]uint8{
	tl.KeyArrowUp:    0x2,
	tl.KeyArrowLeft:  0x4,
	tl.KeyArrowRight: 0x6,
	tl.KeyArrowDown:  0x8,
	tl.KeyEnter:      0x5,
}

// DefaultRuneMap maps printable terminal keys to CHIP-8 key numbers.
var DefaultRuneMap = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// A TermloopDriver is a terminal-based driver that uses the termloop library.
// It shows the current emulator state in real time and the screen.
type TermloopDriver struct {
	mute    bool
	keyMap  map[tl.Key]uint8
	runeMap map[rune]uint8

	g      *tl.Game
	view   *view
	input  *inputHandler
	beeper *beeper.Beeper
	logger *log.Logger

	done    chan struct{}
	started bool
}

// New returns a driver with the default key mappings and sound enabled.
func New() *TermloopDriver {
	return &TermloopDriver{
		keyMap:  DefaultKeyMap,
		runeMap: DefaultRuneMap,
	}
}

// -----------------------------------------------------------------------------

// view renders the latest copy of the screen and the emulator state.
// Its fields are written by the emulator goroutine and read by termloop.
type view struct {
	mutex     sync.Mutex
	frame     []byte
	registers string
	pointers  string
	message   string

	lines [3]*tl.Text
}

func newView() *view {
	v := &view{
		frame: make([]byte, hachi.Width*hachi.Height*hachi.BytesPerPixel),
	}
	for i := range v.lines {
		v.lines[i] = tl.NewText(0, i, "", tl.ColorDefault, tl.ColorDefault)
	}
	return v
}

func (v *view) update(c *hachi.Chip8) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	copy(v.frame, c.Framebuffer())
	v.registers = fmt.Sprintf("V: % 02X", c.V)
	v.pointers = fmt.Sprintf("I: %04X SP: %v PC: %04X DT: %02X ST: %02X "+
		"Keyboard: %016b", c.I, c.SP, c.PC, c.DT, c.ST, c.Keyboard)
}

func (v *view) setMessage(s string) {
	v.mutex.Lock()
	v.message = s
	v.mutex.Unlock()
}

// lit reports whether pixel x, y of the copied frame is on.
// Must be called with the mutex held.
func (v *view) lit(x, y int) bool {
	return v.frame[(y*hachi.Width+x)*hachi.BytesPerPixel] != 0
}

// cell returns the half-block cell showing pixels x, y and x, y+1.
// Must be called with the mutex held.
func (v *view) cell(x, y int) *tl.Cell {
	fg, bg := tl.ColorBlack, tl.ColorBlack
	if v.lit(x, y) {
		fg = tl.ColorWhite
	}
	if v.lit(x, y+1) {
		bg = tl.ColorWhite
	}
	return &tl.Cell{Fg: fg, Bg: bg, Ch: '▀'}
}

func (v *view) Draw(s *tl.Screen) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.lines[0].SetText(v.registers)
	v.lines[1].SetText(v.pointers)
	v.lines[2].SetText(v.message)
	for _, line := range v.lines {
		line.Draw(s)
	}

	for y := 0; y < hachi.Height; y += 2 {
		for x := 0; x < hachi.Width; x++ {
			s.RenderCell(screenX+x, screenY+y/2, v.cell(x, y))
		}
	}
}

func (v *view) Tick(ev tl.Event) {}

// -----------------------------------------------------------------------------

// just a wrapper entity to handle input
type inputHandler struct {
	mutex   sync.Mutex
	keyMap  map[tl.Key]uint8
	runeMap map[rune]uint8
	// since termbox only polls for keydown events we need to add a timer to
	// automatically release those keys
	pressed map[uint8]time.Time
	now     func() time.Time
}

func newInputHandler(keyMap map[tl.Key]uint8, runeMap map[rune]uint8) *inputHandler {
	return &inputHandler{
		keyMap:  keyMap,
		runeMap: runeMap,
		pressed: make(map[uint8]time.Time),
		now:     time.Now,
	}
}

// keys returns the Keyboard bitfield of the keys pressed recently enough,
// forgetting the others.
func (i *inputHandler) keys() uint16 {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	now := i.now()
	var keys uint16
	for number, t := range i.pressed {
		if now.Sub(t) > keyReleaseDelay {
			delete(i.pressed, number)
			continue
		}
		keys |= hachi.KeyFlags[number&0xF]
	}
	return keys
}

func (i *inputHandler) Draw(s *tl.Screen) {}

func (i *inputHandler) Tick(ev tl.Event) {
	if ev.Type != tl.EventKey {
		return
	}

	number, ok := i.keyMap[ev.Key]
	if !ok {
		number, ok = i.runeMap[ev.Ch]
	}
	if !ok {
		return
	}

	i.mutex.Lock()
	i.pressed[number] = i.now()
	i.mutex.Unlock()
}

// -----------------------------------------------------------------------------

// OnInit takes over the terminal and opens the audio device. Audio failures
// are logged and the driver continues muted.
func (d *TermloopDriver) OnInit(c *hachi.Chip8) error {
	if d.started {
		return fmt.Errorf("termloop driver already started")
	}
	d.started = true
	d.logger = c.Logger()

	if !d.mute {
		b, err := beeper.New()
		if err != nil {
			d.logger.Warn("Audio unavailable, continuing muted", log.Err(err))
		} else {
			d.beeper = b
		}
	}

	d.view = newView()
	d.input = newInputHandler(d.keyMap, d.runeMap)

	// init termloop
	d.g = tl.NewGame()
	d.g.SetEndKey(tl.KeyEsc)
	d.g.Screen().SetFps(hachi.FrameRate)
	d.g.Screen().AddEntity(d.input)
	d.g.Screen().AddEntity(d.view)

	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		d.g.Start()
	}()

	d.logger.Debug("TermloopDriver initialized")
	return nil
}

func (d *TermloopDriver) OnUpdate(c *hachi.Chip8) {
	keys := d.input.keys()
	for i := 0; i < len(hachi.KeyFlags); i++ {
		c.SetKey(i, keys&hachi.KeyFlags[i] != 0)
	}
}

func (d *TermloopDriver) UpdateScreen(c *hachi.Chip8) { d.view.update(c) }

func (d *TermloopDriver) Beep(on bool) {
	if d.beeper != nil {
		d.beeper.SetEnabled(on)
	}
}

func (d *TermloopDriver) Done() <-chan struct{} { return d.done }

// Close releases the audio device. termloop can only be stopped with the end
// key, so when the emulator stops first Close waits for the user to press it.
func (d *TermloopDriver) Close() error {
	if !d.started {
		return nil
	}
	d.started = false

	var err error
	if d.beeper != nil {
		err = d.beeper.Close()
		d.beeper = nil
	}

	select {
	case <-d.done:
	default:
		d.view.setMessage("Stopped. Press Esc to quit.")
		<-d.done
	}
	return err
}

func (d *TermloopDriver) SetData(key string, value interface{}) error {
	var ok bool
	switch key {
	case "mute":
		d.mute, ok = value.(bool)
	case "key_map":
		var keyMap map[tl.Key]uint8
		if keyMap, ok = value.(map[tl.Key]uint8); ok {
			d.keyMap = keyMap
		}
	case "rune_map":
		var runeMap map[rune]uint8
		if runeMap, ok = value.(map[rune]uint8); ok {
			d.runeMap = runeMap
		}
	default:
		return fmt.Errorf("unknown data key '%s'", key)
	}
	if !ok {
		return fmt.Errorf("invalid type %s for %s", reflect.TypeOf(value), key)
	}
	return nil
}

// -----------------------------------------------------------------------------

func init() {
	if err := hachi.RegisterDriver("termloop", New()); err != nil {
		panic(err)
	}
}
