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

package hachi

import "math/bits"

// Key flags for the Keyboard bitfield.
const (
	Key0 = 1 << iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// KeyFlags maps key numbers to their Keyboard flag.
var KeyFlags = [16]uint16{Key0, Key1, Key2, Key3, Key4, Key5, Key6, Key7,
	Key8, Key9, KeyA, KeyB, KeyC, KeyD, KeyE, KeyF}

// SetKey marks key index (0x0-0xF) as held or released. Other indices are
// ignored.
// Drivers call this between cycles, never while Step is running.
func (c *Chip8) SetKey(index int, held bool) {
	if index < 0 || index > 0xF {
		return
	}
	if held {
		c.Keyboard |= KeyFlags[index]
	} else {
		c.Keyboard &^= KeyFlags[index]
	}
}

// KeyHeld reports whether key index is currently held.
func (c *Chip8) KeyHeld(index uint8) bool {
	return c.Keyboard&KeyFlags[index&0xF] != 0
}

// changedKey returns the number of the key whose state changed since the
// previous cycle and true, or false if the keyboard did not change.
// Only one key is expected to change per cycle: when several do, the highest
// one wins.
func (c *Chip8) changedKey() (uint8, bool) {
	diff := c.Keyboard ^ c.prevKeyboard
	if diff == 0 {
		return 0, false
	}
	return uint8(bits.Len16(diff) - 1), true
}
