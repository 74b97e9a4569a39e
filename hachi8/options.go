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

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/Francesco149/go-hachi8/hachi"
	"github.com/Francesco149/go-hachi8/internal/config"
)

const usage = "hachi8 [options] <program file>"

type options struct {
	input string

	driver string
	scale  int
	mute   bool
	seed   uint64

	debug bool
	quiet bool
}

func parseFlags(name string, args []string) (options, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	var opts options

	flags.StringVar(&opts.driver, "driver", "ebiten",
		fmt.Sprintf("host driver to use (%s)", strings.Join(hachi.DriverNames(), "/")))
	flags.IntVar(&opts.scale, "scale", 0, "window scale factor, 0 keeps the driver default")
	flags.BoolVar(&opts.mute, "mute", false, "do not beep while the sound timer is running")
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

	if opts.scale < 0 {
		return opts, fmt.Errorf("scale must be >= 0, got %v", opts.scale)
	}
	opts.driver = strings.ToLower(opts.driver)
	return opts, nil
}

// driverData returns the driver settings requested on the command line.
// Options left at their default are omitted so the driver keeps its own.
func (o options) driverData() map[string]interface{} {
	data := map[string]interface{}{}
	if o.scale > 0 {
		data["scale"] = o.scale
	}
	if o.mute {
		data["mute"] = true
	}
	return data
}
