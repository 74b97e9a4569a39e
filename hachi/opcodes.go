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

import "github.com/retroenv/retrogolib/log"

// An opHandler executes one instruction group. operand holds the low 12 bits
// of the instruction word. PC already points past the instruction when the
// handler runs.
type opHandler func(c *Chip8, operand uint16) error

// handlers indexed by the top nibble of the instruction word
// (function pointers are a lot faster than if's)
var opTable = [16]opHandler{
	opSys, opJp, opCall, opSeByte, opSneByte, opSeReg, opLdByte, opAddByte,
	opAlu, opSneReg, opLdI, opJpV0, opRnd, opDrw, opSkp, opMisc,
}

// DecodeGroup returns the instruction group of opcode (bits 12-15).
func DecodeGroup(opcode uint16) uint8 { return uint8(opcode >> 12) }

func dispatch(c *Chip8, opcode uint16) error {
	return opTable[DecodeGroup(opcode)](c, opcode&0x0FFF)
}

// operand fields
func regX(operand uint16) uint8    { return uint8(operand>>8) & 0xF }
func regY(operand uint16) uint8    { return uint8(operand>>4) & 0xF }
func nibble(operand uint16) uint8  { return uint8(operand) & 0xF }
func lowByte(operand uint16) uint8 { return uint8(operand) }

func (c *Chip8) skip() { c.PC = (c.PC + 2) & 0xFFF }

// -----------------------------------------------------------------------------

// SYS NNN
// Only CLS and RET are implemented, calls to machine code are ignored.
func opSys(c *Chip8, operand uint16) error {
	switch operand {
	case 0x0E0: // CLS
		c.Clear()
	case 0x0EE: // RET
		if c.SP == 0 {
			return &StackUnderflowErr{PC: (c.PC - 2) & 0xFFF}
		}
		c.SP--
		c.PC = c.Stack[c.SP]
	}
	return nil
}

// JP NNN
func opJp(c *Chip8, operand uint16) error {
	c.PC = operand
	return nil
}

// CALL NNN
func opCall(c *Chip8, operand uint16) error {
	if c.SP >= len(c.Stack) {
		return &StackOverflowErr{PC: (c.PC - 2) & 0xFFF}
	}
	// push return address
	c.Stack[c.SP] = c.PC
	c.SP++
	c.PC = operand
	return nil
}

// SE VX,NN
func opSeByte(c *Chip8, operand uint16) error {
	if c.V[regX(operand)] == lowByte(operand) {
		c.skip()
	}
	return nil
}

// SNE VX,NN
func opSneByte(c *Chip8, operand uint16) error {
	if c.V[regX(operand)] != lowByte(operand) {
		c.skip()
	}
	return nil
}

// SE VX,VY
func opSeReg(c *Chip8, operand uint16) error {
	if c.V[regX(operand)] == c.V[regY(operand)] {
		c.skip()
	}
	return nil
}

// LD VX,NN
func opLdByte(c *Chip8, operand uint16) error {
	c.V[regX(operand)] = lowByte(operand)
	return nil
}

// ADD VX,NN
// Wraps around without touching VF.
func opAddByte(c *Chip8, operand uint16) error {
	c.V[regX(operand)] += lowByte(operand)
	return nil
}

// 8XYN register to register operations, selected by N.
func opAlu(c *Chip8, operand uint16) error {
	x, y := regX(operand), regY(operand)

	switch nibble(operand) {
	case 0x0: // LD VX,VY
		c.V[x] = c.V[y]
	case 0x1: // OR VX,VY
		c.V[x] |= c.V[y]
	case 0x2: // AND VX,VY
		c.V[x] &= c.V[y]
	case 0x3: // XOR VX,VY
		c.V[x] ^= c.V[y]
	case 0x4: // ADD VX,VY
		result := uint16(c.V[x]) + uint16(c.V[y])
		// only store the 8 least significant bits
		c.V[x] = uint8(result)
		c.V[0xF] = flag(result > 0xFF)
	case 0x5: // SUB VX,VY
		borrow := c.V[x] < c.V[y]
		c.V[x] -= c.V[y]
		c.V[0xF] = flag(borrow)
	case 0x6: // SHR VX
		out := c.V[x] & 0x01 // least significant bit
		c.V[x] >>= 1
		c.V[0xF] = out
	case 0x7: // SUBN VX,VY
		borrow := c.V[y] < c.V[x]
		c.V[x] = c.V[y] - c.V[x]
		c.V[0xF] = flag(borrow)
	case 0xE: // SHL VX
		out := c.V[x] >> 7 // most significant bit
		c.V[x] <<= 1
		c.V[0xF] = out
	}
	return nil
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SNE VX,VY
func opSneReg(c *Chip8, operand uint16) error {
	if c.V[regX(operand)] != c.V[regY(operand)] {
		c.skip()
	}
	return nil
}

// LD I,NNN
func opLdI(c *Chip8, operand uint16) error {
	c.I = operand
	return nil
}

// JP V0,NNN
func opJpV0(c *Chip8, operand uint16) error {
	c.PC = (operand + uint16(c.V[0])) & 0xFFF
	return nil
}

// RND VX,NN (VX = rand() & NN)
func opRnd(c *Chip8, operand uint16) error {
	c.V[regX(operand)] = uint8(c.rng.Uint32()) & lowByte(operand)
	return nil
}

// DRW VX,VY,N
func opDrw(c *Chip8, operand uint16) error {
	collision := c.drawSprite(c.V[regX(operand)], c.V[regY(operand)],
		c.I, nibble(operand))
	c.V[0xF] = flag(collision)
	return nil
}

// EXNN key tests.
func opSkp(c *Chip8, operand uint16) error {
	held := c.KeyHeld(c.V[regX(operand)])

	switch lowByte(operand) {
	case 0x9E: // SKP VX
		if held {
			c.skip()
		}
	case 0xA1: // SKNP VX
		if !held {
			c.skip()
		}
	}
	return nil
}

// FXNN timers, index register and memory transfers.
func opMisc(c *Chip8, operand uint16) error {
	x := regX(operand)

	switch lowByte(operand) {
	case 0x07: // LD VX,DT
		c.V[x] = c.DT
	case 0x0A: // LD VX,K
		// wait until the keyboard changes by running this instruction
		// again on the next cycle
		key, ok := c.changedKey()
		if !ok {
			c.PC = (c.PC - 2) & 0xFFF
			return nil
		}
		c.V[x] = key
		c.logger.Debug("Key wait satisfied", log.Uint8("key", key))
	case 0x15: // LD DT,VX
		c.DT = c.V[x]
	case 0x18: // LD ST,VX
		c.ST = c.V[x]
	case 0x1E: // ADD I,VX
		c.I += uint16(c.V[x])
	case 0x29: // LD F,VX
		// fonts are stored starting at 0x0000
		c.I = uint16(c.V[x]&0xF) * GlyphSize
	case 0x33: // LD B,VX
		value := c.V[x]
		c.Memory[(c.I+2)&0xFFF] = value % 10 // ones
		value /= 10
		c.Memory[(c.I+1)&0xFFF] = value % 10 // tens
		c.Memory[c.I&0xFFF] = value / 10     // hundreds
	case 0x55: // LD [I],VX
		for i := uint16(0); i <= uint16(x); i++ {
			c.Memory[(c.I+i)&0xFFF] = c.V[i]
		}
		// I skips the transferred block plus one byte
		c.I += uint16(x) + 2
	case 0x65: // LD VX,[I]
		for i := uint16(0); i <= uint16(x); i++ {
			c.V[i] = c.Memory[(c.I+i)&0xFFF]
		}
		c.I += uint16(x) + 2
	}
	return nil
}
