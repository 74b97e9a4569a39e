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

// Package beeper plays the tone requested by the CHIP-8 sound timer through
// oto. The tone is a fixed-pitch square wave that drivers switch on and off
// once per frame.
package beeper

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// Default output parameters.
const (
	SampleRate = 44100
	Frequency  = 440
	Volume     = 0x1800
)

// squareWave is an io.Reader producing signed 16-bit little endian mono
// samples. It outputs silence while disabled.
type squareWave struct {
	enabled atomic.Bool
	period  int // samples per cycle
	phase   int
	volume  int16
}

func newSquareWave(sampleRate, frequency int, volume int16) *squareWave {
	period := sampleRate / frequency
	if period < 2 {
		period = 2
	}
	return &squareWave{period: period, volume: volume}
}

func (w *squareWave) Read(p []byte) (int, error) {
	n := len(p) &^ 1
	if !w.enabled.Load() {
		for i := range p[:n] {
			p[i] = 0
		}
		w.phase = 0
		return n, nil
	}

	for i := 0; i < n; i += 2 {
		sample := w.volume
		if w.phase >= w.period/2 {
			sample = -sample
		}
		binary.LittleEndian.PutUint16(p[i:], uint16(sample))
		w.phase = (w.phase + 1) % w.period
	}
	return n, nil
}

// -----------------------------------------------------------------------------

// A Beeper owns an oto context and a player streaming the square wave.
// Only one oto context can exist per process, so create a single Beeper.
type Beeper struct {
	ctx    *oto.Context
	player *oto.Player
	wave   *squareWave
	mutex  sync.Mutex
}

// New opens the audio device and starts streaming silence.
func New() (*Beeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("creating audio context: %w", err)
	}
	<-ready

	b := &Beeper{
		ctx:  ctx,
		wave: newSquareWave(SampleRate, Frequency, Volume),
	}
	b.player = ctx.NewPlayer(b.wave)
	b.player.Play()
	return b, nil
}

// SetEnabled turns the tone on or off. It is safe to call from any goroutine.
func (b *Beeper) SetEnabled(on bool) {
	b.wave.enabled.Store(on)
}

// Enabled reports whether the tone is currently on.
func (b *Beeper) Enabled() bool {
	return b.wave.enabled.Load()
}

// Close stops playback. The oto context itself lives until the process
// exits.
func (b *Beeper) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.player == nil {
		return nil
	}
	b.wave.enabled.Store(false)
	err := b.player.Close()
	b.player = nil
	return err
}
