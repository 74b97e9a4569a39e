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

// Clear turns every pixel off.
func (c *Chip8) Clear() {
	for i := range c.Screen {
		c.Screen[i] = 0
	}
}

// Pixel reports whether the pixel at x, y is lit. Coordinates wrap around.
func (c *Chip8) Pixel(x, y int) bool {
	x = (x%Width + Width) % Width
	y = (y%Height + Height) % Height
	return c.Screen[(y*Width+x)*BytesPerPixel] != 0
}

// drawSprite xors rows bytes of sprite data read from memory at addr onto the
// screen at x, y. Each byte is one row, most significant bit on the left.
// Returns true if any pixel that was toggled was already lit.
func (c *Chip8) drawSprite(x, y uint8, addr uint16, rows uint8) (collision bool) {
	/*
		columns wrap around on their own row. rows are not wrapped
		independently: the pixel offset is wrapped over the whole buffer,
		which for a 64 pixel wide screen moves a sprite that runs off the
		bottom back to the top.
	*/
	for row := uint16(0); row < uint16(rows); row++ {
		line := c.Memory[(addr+row)&0xFFF]
		for bit := uint16(0); bit < 8; bit++ {
			if line&(0x80>>bit) == 0 {
				continue
			}

			column := (uint16(x) + bit) % Width
			offset := ((uint(y)+uint(row))*Width + uint(column)) *
				BytesPerPixel % uint(len(c.Screen))

			pixel := c.Screen[offset : offset+BytesPerPixel]
			if pixel[0] != 0 {
				collision = true
			}
			for i := range pixel {
				pixel[i] ^= 0xFF
			}
		}
	}
	return
}
