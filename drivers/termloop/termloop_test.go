package termloop

import (
	"testing"
	"time"

	"github.com/Francesco149/go-hachi8/hachi"
	tl "github.com/JoelOtter/termloop"
	"github.com/retroenv/retrogolib/assert"
)

func TestInputHandler_AutoRelease(t *testing.T) {
	now := time.Unix(1000, 0)
	i := newInputHandler(DefaultKeyMap, DefaultRuneMap)
	i.now = func() time.Time { return now }

	i.Tick(tl.Event{Type: tl.EventKey, Key: tl.KeyArrowUp})
	i.Tick(tl.Event{Type: tl.EventKey, Ch: 'v'})
	i.Tick(tl.Event{Type: tl.EventKey, Ch: 'p'}) // not mapped
	assert.Equal(t, uint16(hachi.Key2|hachi.KeyF), i.keys())

	now = now.Add(keyReleaseDelay / 2)
	i.Tick(tl.Event{Type: tl.EventKey, Ch: 'v'})

	// the arrow press expired, v was pressed again
	now = now.Add(keyReleaseDelay/2 + time.Millisecond)
	assert.Equal(t, uint16(hachi.KeyF), i.keys())

	now = now.Add(keyReleaseDelay)
	assert.Equal(t, uint16(0), i.keys())
}

func TestInputHandler_IgnoresOtherEvents(t *testing.T) {
	i := newInputHandler(DefaultKeyMap, DefaultRuneMap)
	i.Tick(tl.Event{Type: tl.EventResize, Ch: '1'})
	assert.Equal(t, uint16(0), i.keys())
}

func TestView_Update(t *testing.T) {
	c := hachi.New(nil)
	c.Memory[0x300] = 0x80
	c.Memory[0x301] = 0x80
	c.I = 0x300
	c.V[1] = 1

	// draw a 1x2 column at 0,1 so that it spans two cells
	assert.NoError(t, c.LoadRaw([]byte{0xD0, 0x12}))
	_, err := c.Step()
	assert.NoError(t, err)

	v := newView()
	v.update(c)
	assert.Contains(t, v.pointers, "PC: 0202")
	assert.Contains(t, v.registers, "V: 00 01")

	v.mutex.Lock()
	defer v.mutex.Unlock()
	assert.Equal(t, tl.Cell{Fg: tl.ColorBlack, Bg: tl.ColorWhite, Ch: '▀'}, *v.cell(0, 0))
	assert.Equal(t, tl.Cell{Fg: tl.ColorWhite, Bg: tl.ColorBlack, Ch: '▀'}, *v.cell(0, 2))
	assert.Equal(t, tl.Cell{Fg: tl.ColorBlack, Bg: tl.ColorBlack, Ch: '▀'}, *v.cell(1, 0))
}

func TestSetData(t *testing.T) {
	d := New()

	assert.NoError(t, d.SetData("mute", true))
	assert.True(t, d.mute)

	runeMap := map[rune]uint8{'k': 0x5}
	assert.NoError(t, d.SetData("rune_map", runeMap))
	assert.Equal(t, uint8(0x5), d.runeMap['k'])

	assert.NoError(t, d.SetData("key_map", map[tl.Key]uint8{}))
	assert.ErrorContains(t, d.SetData("key_map", "up"), "invalid type")
	assert.ErrorContains(t, d.SetData("scale", 2), "unknown data key")
}

func TestCloseBeforeInit(t *testing.T) {
	d := New()
	assert.NoError(t, d.Close())
}
