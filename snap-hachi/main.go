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

// Package main implements snap-hachi, which runs a CHIP-8 program without a
// display and saves the final screen as an image.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Francesco149/go-hachi8/hachi"
	"github.com/Francesco149/go-hachi8/internal/config"
	"github.com/Francesco149/go-hachi8/snapshot"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const usage = "snap-hachi [options] <program file>"

type options struct {
	input     string
	output    string
	maxCycles int
	scale     int
	seed      uint64

	debug bool
	quiet bool
}

func main() {
	ctx := app.Context()

	opts, err := parseFlags(os.Args[0], os.Args[1:])
	logger := config.CreateLogger(opts.debug, opts.quiet)
	if err != nil {
		var usageErr *config.UsageError
		if errors.As(err, &usageErr) {
			config.PrintBanner(logger, "snap-hachi", opts.quiet, version, commit, date)
			usageErr.ShowUsage(os.Stderr)
		} else {
			logger.Error("Invalid arguments", log.Err(err))
		}
		os.Exit(1)
	}

	config.PrintBanner(logger, "snap-hachi", opts.quiet, version, commit, date)

	if err := snap(ctx, logger, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Fatal("Snapshot failed", log.Err(err))
	}
}

func parseFlags(name string, args []string) (options, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	var opts options

	flags.StringVar(&opts.output, "o", "out.ppm", "name of the output image, the extension selects the format (.ppm/.png/.bmp)")
	flags.IntVar(&opts.maxCycles, "max-cycles", 1_000_000, "stop after this many cycles, 0 runs until the program ends")
	flags.IntVar(&opts.scale, "scale", 1, "size of every pixel in the output image")
	flags.Uint64Var(&opts.seed, "seed", 0, "seed for the random number generator, 0 picks one from the clock")
	flags.BoolVar(&opts.debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.quiet, "q", false, "perform operations quietly")

	if err := flags.Parse(args); err != nil {
		return opts, config.NewUsageError(flags, usage, err.Error())
	}

	rest := flags.Args()
	switch {
	case len(rest) == 0:
		return opts, config.NewUsageError(flags, usage, "")
	case len(rest) > 1:
		return opts, config.NewUsageError(flags, usage,
			fmt.Sprintf("unexpected argument %s after the program file", rest[1]))
	}
	opts.input = rest[0]

	if opts.maxCycles < 0 {
		return opts, fmt.Errorf("max-cycles must be >= 0, got %v", opts.maxCycles)
	}
	if opts.scale < 1 {
		return opts, fmt.Errorf("scale must be >= 1, got %v", opts.scale)
	}
	if err := snapshot.CheckFormat(opts.output); err != nil {
		return opts, err
	}
	return opts, nil
}

func snap(ctx context.Context, logger *log.Logger, opts options) error {
	if err := snapshot.CheckFormat(opts.output); err != nil {
		return err
	}

	c := hachi.New(&hachi.Chip8Settings{Logger: logger, Seed: opts.seed})
	if _, err := c.Load(opts.input); err != nil {
		return fmt.Errorf("loading '%s': %w", opts.input, err)
	}

	cycles, err := execute(ctx, c, opts.maxCycles)
	if err != nil {
		return err
	}
	logger.Info("Program stopped", log.Int("cycles", cycles), log.Hex("pc", c.PC))

	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("creating file '%s': %w", opts.output, err)
	}
	if err := snapshot.Encode(f, opts.output, c.Framebuffer(), opts.scale); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing image: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}

	logger.Info("Snapshot written", log.String("file", opts.output))
	return nil
}

// execute steps c until the next instruction word is zero or maxCycles
// cycles ran. A maxCycles of zero means no limit.
func execute(ctx context.Context, c *hachi.Chip8, maxCycles int) (int, error) {
	cycles := 0
	for maxCycles == 0 || cycles < maxCycles {
		if cycles%hachi.CyclesPerFrame == 0 {
			if err := ctx.Err(); err != nil {
				return cycles, err
			}
		}

		running, err := c.Step()
		if err != nil {
			return cycles, err
		}
		cycles++
		if !running {
			break
		}
	}
	return cycles, nil
}
