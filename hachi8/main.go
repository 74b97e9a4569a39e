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

// Package main implements hachi8, a CHIP-8 interpreter for the desktop and
// the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	_ "github.com/Francesco149/go-hachi8/drivers"
	"github.com/Francesco149/go-hachi8/hachi"
	"github.com/Francesco149/go-hachi8/internal/config"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// isTerminal reports whether the termloop driver can take over stdout.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

func main() {
	ctx := app.Context()

	opts, err := parseFlags(os.Args[0], os.Args[1:])
	logger := config.CreateLogger(opts.debug, opts.quiet)
	if err != nil {
		var usageErr *config.UsageError
		if errors.As(err, &usageErr) {
			config.PrintBanner(logger, "hachi8", opts.quiet, version, commit, date)
			usageErr.ShowUsage(os.Stderr)
		} else {
			logger.Error("Invalid arguments", log.Err(err))
		}
		os.Exit(1)
	}

	config.PrintBanner(logger, "hachi8", opts.quiet, version, commit, date)

	if err := run(ctx, logger, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Emulation cancelled")
			return
		}
		logger.Fatal("Emulation failed", log.Err(err))
	}
}

func run(ctx context.Context, logger *log.Logger, opts options) error {
	if opts.driver == "termloop" && !isTerminal() {
		return errors.New("the termloop driver needs a terminal on stdout")
	}

	drv, err := hachi.GetDriver(opts.driver)
	if err != nil {
		return err
	}
	configureDriver(logger, drv, opts.driverData())

	c := hachi.New(&hachi.Chip8Settings{Logger: logger, Seed: opts.seed})
	if _, err := c.Load(opts.input); err != nil {
		return fmt.Errorf("loading '%s': %w", opts.input, err)
	}

	logger.Debug("Starting emulation", log.String("driver", opts.driver))
	if err := hachi.Run(ctx, c, drv); err != nil {
		return err
	}
	logger.Debug("Driver quit", log.String("state", c.String()))
	return nil
}

// configureDriver passes data to the driver. Keys the driver does not
// support are logged and skipped.
func configureDriver(logger *log.Logger, drv hachi.Driver, data map[string]interface{}) {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := drv.SetData(key, data[key]); err != nil {
			logger.Debug("Driver option ignored", log.String("option", key), log.Err(err))
		}
	}
}
