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

// Package ebiten implements a windowed driver for hachi on top of ebiten.
//
// The framebuffer is uploaded as is with WritePixels and scaled up to the
// window. The hex keypad is mapped to the left side of a QWERTY keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
//
// Arrow keys double as 2, 4, 6 and 8. F1 toggles the status bar, Escape
// closes the window.
//
// Settable data (SetData): "scale" (int), "mute" (bool),
// "key_map" (map[ebiten.Key]uint8).
package ebiten

import (
	"fmt"
	"image/color"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/Francesco149/go-hachi8/drivers/beeper"
	"github.com/Francesco149/go-hachi8/hachi"
	eb "github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/image/font/basicfont"
)

const statusBarHeight = 16

var statusFace = text.NewGoXFace(basicfont.Face7x13)

// DefaultKeyMap maps host keys to CHIP-8 key numbers.
var DefaultKeyMap = map[eb.Key]uint8{
	eb.Key1: 0x1, eb.Key2: 0x2, eb.Key3: 0x3, eb.Key4: 0xC,
	eb.KeyQ: 0x4, eb.KeyW: 0x5, eb.KeyE: 0x6, eb.KeyR: 0xD,
	eb.KeyA: 0x7, eb.KeyS: 0x8, eb.KeyD: 0x9, eb.KeyF: 0xE,
	eb.KeyZ: 0xA, eb.KeyX: 0x0, eb.KeyC: 0xB, eb.KeyV: 0xF,

	eb.KeyArrowUp:    0x2,
	eb.KeyArrowLeft:  0x4,
	eb.KeyArrowRight: 0x6,
	eb.KeyArrowDown:  0x8,
}

// An EbitenDriver shows the emulator in a window. ebiten runs its own game
// loop on a separate goroutine, the driver only exchanges the framebuffer
// and the keyboard state with it under a mutex.
type EbitenDriver struct {
	scale  int
	mute   bool
	keyMap map[eb.Key]uint8

	window     *eb.Image
	frame      []byte
	keys       uint16
	status     string
	showStatus bool
	mutex      sync.Mutex

	beeper *beeper.Beeper
	logger *log.Logger

	ready   chan struct{}
	done    chan struct{}
	quit    atomic.Bool
	started bool
}

// New returns a driver with a window scale of 10 and sound enabled.
func New() *EbitenDriver {
	return &EbitenDriver{
		scale:      10,
		keyMap:     DefaultKeyMap,
		showStatus: true,
	}
}

// OnInit opens the window and the audio device. Audio failures are logged
// and the driver continues muted.
func (d *EbitenDriver) OnInit(c *hachi.Chip8) error {
	if d.started {
		return fmt.Errorf("ebiten driver already started")
	}
	d.started = true
	d.logger = c.Logger()
	d.frame = make([]byte, len(c.Framebuffer()))
	d.ready = make(chan struct{}, 1)
	d.done = make(chan struct{})
	d.quit.Store(false)

	if !d.mute {
		b, err := beeper.New()
		if err != nil {
			d.logger.Warn("Audio unavailable, continuing muted", log.Err(err))
		} else {
			d.beeper = b
		}
	}

	w, h := d.Layout(0, 0)
	eb.SetWindowSize(w, h)
	eb.SetWindowTitle("hachi8")
	eb.SetRunnableOnUnfocused(true)

	go func() {
		defer close(d.done)
		if err := eb.RunGame(d); err != nil {
			d.logger.Error("Ebiten error", log.Err(err))
		}
	}()

	// wait for the first Draw call to make sure the window is up
	select {
	case <-d.ready:
	case <-d.done:
		return fmt.Errorf("ebiten stopped before the first frame")
	}
	d.logger.Debug("EbitenDriver initialized", log.Int("scale", d.scale))
	return nil
}

// OnUpdate copies the keys held in the window into the emulator.
func (d *EbitenDriver) OnUpdate(c *hachi.Chip8) {
	d.mutex.Lock()
	keys := d.keys
	d.mutex.Unlock()

	for i := 0; i < len(hachi.KeyFlags); i++ {
		c.SetKey(i, keys&hachi.KeyFlags[i] != 0)
	}
}

// UpdateScreen copies the framebuffer and the status line for the next Draw.
func (d *EbitenDriver) UpdateScreen(c *hachi.Chip8) {
	d.mutex.Lock()
	copy(d.frame, c.Framebuffer())
	d.status = fmt.Sprintf("PC:%04X I:%04X SP:%d DT:%02X ST:%02X",
		c.PC, c.I, c.SP, c.DT, c.ST)
	d.mutex.Unlock()
}

func (d *EbitenDriver) Beep(on bool) {
	if d.beeper != nil {
		d.beeper.SetEnabled(on)
	}
}

func (d *EbitenDriver) Done() <-chan struct{} { return d.done }

// Close asks ebiten to stop and releases the audio player.
func (d *EbitenDriver) Close() error {
	d.quit.Store(true)
	d.started = false
	if d.beeper != nil {
		err := d.beeper.Close()
		d.beeper = nil
		return err
	}
	return nil
}

func (d *EbitenDriver) SetData(key string, value interface{}) error {
	var ok bool
	switch key {
	case "scale":
		var scale int
		if scale, ok = value.(int); ok {
			if scale < 1 {
				return fmt.Errorf("scale must be >= 1, got %v", scale)
			}
			d.scale = scale
		}
	case "mute":
		d.mute, ok = value.(bool)
	case "key_map":
		var keyMap map[eb.Key]uint8
		if keyMap, ok = value.(map[eb.Key]uint8); ok {
			d.mutex.Lock()
			d.keyMap = keyMap
			d.mutex.Unlock()
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
// ebiten.Game

func (d *EbitenDriver) Update() error {
	if d.quit.Load() || inpututil.IsKeyJustPressed(eb.KeyEscape) {
		return eb.Termination
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if inpututil.IsKeyJustPressed(eb.KeyF1) {
		d.showStatus = !d.showStatus
	}

	d.keys = pressedKeys(d.keyMap, eb.IsKeyPressed)
	return nil
}

// pressedKeys builds a Keyboard bitfield from the host keys reported held by
// isPressed.
func pressedKeys(keyMap map[eb.Key]uint8, isPressed func(eb.Key) bool) uint16 {
	var keys uint16
	for key, number := range keyMap {
		if isPressed(key) {
			keys |= hachi.KeyFlags[number&0xF]
		}
	}
	return keys
}

func (d *EbitenDriver) Draw(screen *eb.Image) {
	if d.window == nil {
		d.window = eb.NewImage(hachi.Width, hachi.Height)
	}

	d.mutex.Lock()
	d.window.WritePixels(d.frame)
	status, showStatus := d.status, d.showStatus
	d.mutex.Unlock()

	op := &eb.DrawImageOptions{}
	op.GeoM.Scale(float64(d.scale), float64(d.scale))
	screen.DrawImage(d.window, op)

	if showStatus {
		textOp := &text.DrawOptions{}
		textOp.GeoM.Translate(4, float64(hachi.Height*d.scale+2))
		textOp.ColorScale.ScaleWithColor(color.White)
		text.Draw(screen, status, statusFace, textOp)
	}

	select {
	case d.ready <- struct{}{}:
	default:
	}
}

func (d *EbitenDriver) Layout(_, _ int) (int, int) {
	return hachi.Width * d.scale, hachi.Height*d.scale + statusBarHeight
}

// -----------------------------------------------------------------------------

func init() {
	if err := hachi.RegisterDriver("ebiten", New()); err != nil {
		panic(err)
	}
}
