package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Francesco149/go-hachi8/hachi"
	"github.com/Francesco149/go-hachi8/internal/config"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags("hachi8", []string{"-driver", "TermLoop", "-scale", "4", "-mute", "-seed", "7", "-q", "pong.ch8"})
	assert.NoError(t, err)
	assert.Equal(t, "pong.ch8", opts.input)
	assert.Equal(t, "termloop", opts.driver)
	assert.Equal(t, 4, opts.scale)
	assert.True(t, opts.mute)
	assert.Equal(t, uint64(7), opts.seed)
	assert.True(t, opts.quiet)
	assert.False(t, opts.debug)
}

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags("hachi8", []string{"pong.ch8"})
	assert.NoError(t, err)
	assert.Equal(t, "ebiten", opts.driver)
	assert.Equal(t, 0, opts.scale)
	assert.Len(t, opts.driverData(), 0)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		usage bool
	}{
		{"no program", []string{"-mute"}, true},
		{"extra argument", []string{"pong.ch8", "-mute"}, true},
		{"unknown flag", []string{"-fast", "pong.ch8"}, true},
		{"negative scale", []string{"-scale", "-1", "pong.ch8"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags("hachi8", tt.args)
			assert.Error(t, err)

			var usageErr *config.UsageError
			assert.Equal(t, tt.usage, errors.As(err, &usageErr))
		})
	}
}

func TestDriverData(t *testing.T) {
	opts := options{scale: 3, mute: true}
	data := opts.driverData()
	assert.Equal(t, 3, data["scale"])
	assert.Equal(t, true, data["mute"])
}

type recordingDriver struct {
	hachi.NullDriver
	data map[string]interface{}
}

func (d *recordingDriver) SetData(key string, value interface{}) error {
	if key == "scale" {
		return errors.New("no window")
	}
	d.data[key] = value
	return nil
}

func TestConfigureDriver(t *testing.T) {
	drv := &recordingDriver{data: map[string]interface{}{}}

	configureDriver(log.NewTestLogger(t), drv, map[string]interface{}{"scale": 2, "mute": true})
	assert.Len(t, drv.data, 1)
	assert.Equal(t, true, drv.data["mute"])
}

func writeProgram(t *testing.T, program []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.ch8")
	assert.NoError(t, os.WriteFile(path, program, 0o644))
	return path
}

func TestRun_Fault(t *testing.T) {
	path := writeProgram(t, []byte{0x00, 0xEE}) // RET

	err := run(context.Background(), log.NewTestLogger(t), options{input: path, driver: "null", seed: 1})
	var underflow *hachi.StackUnderflowErr
	assert.True(t, errors.As(err, &underflow))
}

func TestRun_Cancelled(t *testing.T) {
	path := writeProgram(t, []byte{0x12, 0x00}) // JP 200
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, log.NewTestLogger(t), options{input: path, driver: "null"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_Errors(t *testing.T) {
	logger := log.NewTestLogger(t)

	err := run(context.Background(), logger, options{input: "pong.ch8", driver: "vga"})
	assert.ErrorContains(t, err, "driver vga not found")

	err = run(context.Background(), logger, options{input: filepath.Join(t.TempDir(), "missing.ch8"), driver: "null"})
	assert.ErrorContains(t, err, "loading")

	saved := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = saved })
	err = run(context.Background(), logger, options{input: "pong.ch8", driver: "termloop"})
	assert.ErrorContains(t, err, "needs a terminal")
}
