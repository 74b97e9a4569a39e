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

// Package hachi implements a CHIP-8 interpreter core.
//
// The core holds the whole machine state in a single Chip8 value and advances
// it one instruction at a time (Step) or one display frame at a time (Frame).
// It never sleeps, polls input or talks to the host: rendering, input mapping,
// audio and pacing belong to a Driver (see driver.go) or to the caller.
package hachi

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/retroenv/retrogolib/log"
)

// Memory map and machine dimensions.
const (
	// MemorySize is the size of the flat address space.
	MemorySize = 0x1000
	// ProgramStart is where programs are loaded and execution begins.
	// The first 512 bytes were occupied by the original interpreter and now
	// only hold the font.
	ProgramStart = 0x200
	// StackSize is the maximum amount of nested calls.
	StackSize = 16
	// Width and Height of the display in logical pixels.
	Width, Height = 64, 32
	// BytesPerPixel is the amount of bytes used by each logical pixel in the
	// framebuffer. All of them hold the same intensity so the buffer can be
	// handed to an RGBA renderer as is.
	BytesPerPixel = 4
	// CyclesPerFrame is the amount of instructions executed by Frame.
	CyclesPerFrame = 9
	// FrameRate is the rate at which Frame is meant to be called, in hertz.
	FrameRate = 60
)

// -----------------------------------------------------------------------------

// An OutOfMemoryErr is returned upon attempting to load a program that
// exceeds the memory's capacity.
type OutOfMemoryErr struct {
	ProgramSize int64
}

func (e *OutOfMemoryErr) Error() string {
	return fmt.Sprintf("not enough memory (program size: %v, free memory: %v)",
		e.ProgramSize, MemorySize-ProgramStart)
}

// A StackOverflowErr is returned when a call is made with a full stack.
type StackOverflowErr struct {
	PC uint16
}

func (e *StackOverflowErr) Error() string {
	return fmt.Sprintf("stack overflow at %04X", e.PC)
}

// A StackUnderflowErr is returned when returning from a subroutine with an
// empty stack.
type StackUnderflowErr struct {
	PC uint16
}

func (e *StackUnderflowErr) Error() string {
	return fmt.Sprintf("stack underflow at %04X", e.PC)
}

// -----------------------------------------------------------------------------

// Chip8Settings holds the configuration parameters for a Chip8 instance.
type Chip8Settings struct {
	// Logger receives load and fault messages. A default logger is created
	// when nil.
	Logger *log.Logger
	// Seed for the random number generator used by RND. Zero seeds from the
	// current time.
	Seed uint64
}

// Validate validates the settings.
// Returns an error when the settings aren't valid.
func (s *Chip8Settings) Validate() error {
	if s == nil {
		return fmt.Errorf("settings are nil")
	}
	return nil
}

// DefaultSettings is used by New when no settings are given.
var DefaultSettings = &Chip8Settings{}

// -----------------------------------------------------------------------------

// Chip8 holds the state of the virtual machine. Fields are exported so that
// drivers and tests can inspect them between cycles; they must not be
// modified while a Step is running.
type Chip8 struct {
	// The memory where programs are loaded and executed.
	// 0x000-0x1FF holds the font, programs start at 0x200.
	Memory [MemorySize]byte
	// V[0x0]~V[0xF] are 8-bit registers. V[0xF] doubles as carry, borrow
	// and collision flag.
	V [16]uint8
	// 16-bit address register. Used for memory operations and sprites.
	I uint16
	// Program counter. Holds the address of the next instruction.
	PC uint16
	// The call stack, which holds return addresses.
	Stack [StackSize]uint16
	// The stack pointer. Amount of addresses currently pushed on the stack.
	SP int
	// Timers. Both count down by one every cycle while non-zero.
	// DT is meant for timing events in games, the host should beep as long
	// as ST is non-zero.
	DT uint8
	ST uint8
	// Keyboard is a bitfield of the 16 keys currently held, see the Key*
	// constants.
	Keyboard uint16
	// Screen buffer. 64x32 pixels, row-major, 4 bytes per pixel which are
	// either all 0x00 or all 0xFF.
	Screen [Width * Height * BytesPerPixel]byte

	// keyboard state at the end of the previous cycle, used by LD VX,K
	prevKeyboard uint16

	rng    *rand.Rand
	logger *log.Logger
}

// New initializes a new instance of Chip8 with the given settings. If settings
// is nil, DefaultSettings will be used.
// The returned machine has zeroed registers, memory and timers, the font
// loaded at address 0 and the program counter at ProgramStart.
func New(s *Chip8Settings) *Chip8 {
	if s == nil {
		s = DefaultSettings
	}

	seed := s.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	logger := s.Logger
	if logger == nil {
		logger = log.NewWithConfig(log.DefaultConfig())
	}

	c := &Chip8{
		PC:     ProgramStart,
		rng:    rand.New(rand.NewPCG(seed, seed>>32|1)),
		logger: logger,
	}
	copy(c.Memory[:], font[:])
	return c
}

// String returns formatted information about the instance of the emulator.
func (c *Chip8) String() string {
	return fmt.Sprintf("Chip8{Registers: [% 02X] I: %04X, "+
		"Stack: % 04X, SP: %v, PC: %04X, DT: %02X, ST: %02X, "+
		"Keyboard: %016b}",
		c.V, c.I, c.Stack[:c.SP], c.SP, c.PC, c.DT, c.ST, c.Keyboard)
}

// Logger returns the logger in use by the emulator.
func (c *Chip8) Logger() *log.Logger { return c.logger }

// Load opens a CHIP-8 binary file and loads it into memory.
// Returns the size, in bytes, of the program and an error if any.
func (c *Chip8) Load(path string) (size int64, err error) {
	program, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading program: %w", err)
	}

	size = int64(len(program))
	if err = c.LoadRaw(program); err != nil {
		return size, err
	}
	c.logger.Debug("Program file loaded", log.String("path", path))
	return size, nil
}

// LoadRaw loads a byte array as a CHIP-8 binary into memory at ProgramStart.
// Programs that don't fit are rejected and memory is left untouched.
func (c *Chip8) LoadRaw(program []byte) error {
	if len(program) > MemorySize-ProgramStart {
		return &OutOfMemoryErr{int64(len(program))}
	}
	copy(c.Memory[ProgramStart:], program)
	c.logger.Info("Loaded program", log.Int("size", len(program)))
	return nil
}

// Framebuffer returns the display surface: Width*Height pixels, row-major
// from the top-left corner, BytesPerPixel bytes each. The slice aliases the
// emulator's screen and must be treated as read-only.
func (c *Chip8) Framebuffer() []byte { return c.Screen[:] }

// -----------------------------------------------------------------------------

// fetch reads the big-endian instruction word at addr.
func (c *Chip8) fetch(addr uint16) uint16 {
	return uint16(c.Memory[addr&0xFFF])<<8 | uint16(c.Memory[(addr+1)&0xFFF])
}

// Step runs one CPU cycle: it executes the instruction at PC, decrements both
// timers and latches the keyboard state for the next cycle.
// It returns whether the next instruction word is non-zero, which callers can
// use as a crude "still running" signal.
// On error the machine is left as it was before the faulting instruction was
// fetched.
func (c *Chip8) Step() (bool, error) {
	pc := c.PC
	opcode := c.fetch(pc)
	c.PC = (pc + 2) & 0xFFF

	if err := dispatch(c, opcode); err != nil {
		c.PC = pc
		c.logger.Debug("Instruction fault",
			log.Hex("pc", pc), log.Hex("opcode", opcode), log.Err(err))
		return false, err
	}

	if c.DT > 0 {
		c.DT--
	}
	if c.ST > 0 {
		c.ST--
	}
	c.prevKeyboard = c.Keyboard

	return c.fetch(c.PC) != 0, nil
}

// Frame runs CyclesPerFrame cycles. It returns true if any of them reported
// a non-zero next instruction, and stops at the first error.
func (c *Chip8) Frame() (bool, error) {
	running := false
	for i := 0; i < CyclesPerFrame; i++ {
		more, err := c.Step()
		if err != nil {
			return running, err
		}
		running = running || more
	}
	return running, nil
}
