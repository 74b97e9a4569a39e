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

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/retroenv/retrogolib/log"
)

// A Driver connects the emulator to the host: it feeds input, shows the
// screen and plays the beeper. Run calls its methods between frames, so a
// driver never observes a Step in progress.
// Drivers should be registered by the RegisterDriver function in init().
type Driver interface {
	// Called once before the first frame.
	OnInit(c *Chip8) error
	// Called before every frame, should be used to copy the host's input
	// state into the emulator through SetKey.
	OnUpdate(c *Chip8)
	// Called after every frame. Drivers must copy what they need from
	// Framebuffer before returning.
	UpdateScreen(c *Chip8)
	// Turns the beeper on or off. Called after every frame.
	Beep(on bool)
	// Done is closed when the user closes the driver's window or terminal.
	// A nil channel means the driver never quits on its own.
	Done() <-chan struct{}
	// Releases the driver's resources.
	Close() error
	// Sets driver specific options, such as key mappings. Must be called
	// before OnInit.
	SetData(key string, value interface{}) error
}

// -----------------------------------------------------------------------------

var drivers map[string]Driver

// RegisterDriver registers a driver to a name. The driver can then be
// retrieved by GetDriver.
// This is not thread-safe, so don't call it concurrently to the emulator's
// execution.
func RegisterDriver(name string, drv Driver) error {
	if drivers[name] != nil {
		return fmt.Errorf("driver %s already exists", name)
	}
	drivers[name] = drv
	return nil
}

// UnregisterDriver unloads a previously registered driver.
// This is not thread-safe, so don't call it concurrently to the emulator's
// execution.
func UnregisterDriver(name string) error {
	if drivers[name] == nil {
		return fmt.Errorf("driver %s does not exist", name)
	}
	delete(drivers, name)
	return nil
}

// GetDriver returns the driver registered to name.
func GetDriver(name string) (Driver, error) {
	drv := drivers[name]
	if drv == nil {
		return nil, fmt.Errorf("driver %s not found (available: %v)",
			name, DriverNames())
	}
	return drv, nil
}

// DriverNames returns the names of all registered drivers, sorted.
func DriverNames() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// -----------------------------------------------------------------------------

// A NullDriver is the default driver, which ignores all calls.
type NullDriver struct{}

func (d NullDriver) OnInit(c *Chip8) error { return nil }
func (d NullDriver) OnUpdate(c *Chip8)     {}
func (d NullDriver) UpdateScreen(c *Chip8) {}
func (d NullDriver) Beep(on bool)          {}
func (d NullDriver) Done() <-chan struct{} { return nil }
func (d NullDriver) Close() error          { return nil }
func (d NullDriver) SetData(key string, value interface{}) error {
	return fmt.Errorf("this driver has no settable data")
}

// -----------------------------------------------------------------------------

// Run drives the emulator with drv at FrameRate frames per second until ctx
// is cancelled, the driver is done or the emulator faults. Every frame the
// driver's input is applied, CyclesPerFrame instructions are executed, then
// the screen and the beeper are updated.
// Returns ctx.Err() on cancellation and nil when the driver quits.
func Run(ctx context.Context, c *Chip8, drv Driver) (err error) {
	if err = drv.OnInit(c); err != nil {
		return fmt.Errorf("initializing driver: %w", err)
	}
	defer func() {
		if cerr := drv.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing driver: %w", cerr)
		}
	}()

	ticker := time.NewTicker(time.Second / FrameRate)
	defer ticker.Stop()

	frames := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-drv.Done():
			c.logger.Debug("Driver finished", log.Int("frames", frames))
			return nil

		case <-ticker.C:
			drv.OnUpdate(c)
			if _, err = c.Frame(); err != nil {
				drv.Beep(false)
				return err
			}
			drv.UpdateScreen(c)
			drv.Beep(c.ST > 0)
			frames++
		}
	}
}

// -----------------------------------------------------------------------------

func init() {
	drivers = make(map[string]Driver)

	if err := RegisterDriver("null", NullDriver{}); err != nil {
		panic(err)
	}
}
