package hachi

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

type mockDriver struct {
	initErr  error
	closeErr error
	quitAt   int

	inits, updates, screens, closes int
	beeps                           []bool
	done                            chan struct{}
}

func newMockDriver(quitAt int) *mockDriver {
	return &mockDriver{quitAt: quitAt, done: make(chan struct{})}
}

func (d *mockDriver) OnInit(c *Chip8) error { d.inits++; return d.initErr }
func (d *mockDriver) OnUpdate(c *Chip8)     { d.updates++; c.SetKey(0, true) }
func (d *mockDriver) Beep(on bool)          { d.beeps = append(d.beeps, on) }
func (d *mockDriver) Done() <-chan struct{} { return d.done }
func (d *mockDriver) Close() error          { d.closes++; return d.closeErr }

func (d *mockDriver) SetData(key string, value interface{}) error {
	return nil
}

func (d *mockDriver) UpdateScreen(c *Chip8) {
	d.screens++
	if d.screens == d.quitAt {
		close(d.done)
	}
}

func TestDriverRegistry(t *testing.T) {
	drv, err := GetDriver("null")
	assert.NoError(t, err)
	assert.NotNil(t, drv)
	assert.Error(t, drv.SetData("scale", 2))

	_, err = GetDriver("missing")
	assert.ErrorContains(t, err, "driver missing not found")

	assert.NoError(t, RegisterDriver("mock", newMockDriver(0)))
	assert.Error(t, RegisterDriver("mock", newMockDriver(0)))
	assert.True(t, slices.Contains(DriverNames(), "mock"))

	assert.NoError(t, UnregisterDriver("mock"))
	assert.Error(t, UnregisterDriver("mock"))
}

func TestRun_DriverQuits(t *testing.T) {
	c := newTestChip8(t,
		0x6AFF, // 200: LD VA,FF
		0xFA18, // 202: LD ST,VA
		0xE09E, // 204: SKP V0
		0x1204, // 206: JP 204
		0x1208, // 208: JP 208
	)
	drv := newMockDriver(3)

	err := Run(context.Background(), c, drv)
	assert.NoError(t, err)
	assert.Equal(t, 1, drv.inits)
	assert.Equal(t, 1, drv.closes)
	assert.Equal(t, 3, drv.screens)
	assert.Equal(t, 3, drv.updates)
	assert.Equal(t, []bool{true, true, true}, drv.beeps)
	// key 0 was set by the driver before the first frame
	assert.Equal(t, uint16(0x208), c.PC)
}

func TestRun_Cancelled(t *testing.T) {
	c := newTestChip8(t, 0x1200)
	drv := newMockDriver(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, c, drv)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, drv.closes)
	assert.Equal(t, 0, drv.screens)
}

func TestRun_EmulatorFault(t *testing.T) {
	c := newTestChip8(t, 0x00EE)
	drv := newMockDriver(0)

	err := Run(context.Background(), c, drv)
	var underflow *StackUnderflowErr
	assert.True(t, errors.As(err, &underflow))
	assert.Equal(t, []bool{false}, drv.beeps)
	assert.Equal(t, 1, drv.closes)
}

func TestRun_InitAndCloseErrors(t *testing.T) {
	c := newTestChip8(t, 0x1200)

	drv := newMockDriver(0)
	drv.initErr = errors.New("no display")
	err := Run(context.Background(), c, drv)
	assert.ErrorContains(t, err, "initializing driver: no display")
	assert.Equal(t, 0, drv.closes)

	drv = newMockDriver(1)
	drv.closeErr = errors.New("busy")
	err = Run(context.Background(), c, drv)
	assert.ErrorContains(t, err, "closing driver: busy")
}
