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

// Package config contains the command line plumbing shared by the hachi
// commands.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrogolib/log"
)

// CreateLogger returns a logger whose level follows the debug and quiet
// command line switches. Debug wins when both are set.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// PrintBanner logs the program name and build information unless quiet is
// set.
func PrintBanner(logger *log.Logger, name string, quiet bool, version, commit, date string) {
	if quiet {
		return
	}

	logger.Info(name, log.String("version", VersionString(version, commit)))
	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}

// VersionString appends the abbreviated commit hash to version.
func VersionString(version, commit string) string {
	if commit == "" {
		return version
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (%s)", version, commit)
}

// UsageError is returned by flag parsing when the usage should be shown.
type UsageError struct {
	flags *flag.FlagSet
	usage string
	msg   string
}

// NewUsageError returns a UsageError for flags. usage is the one line
// synopsis printed above the flag defaults.
func NewUsageError(flags *flag.FlagSet, usage, msg string) *UsageError {
	return &UsageError{flags: flags, usage: usage, msg: msg}
}

func (e *UsageError) Error() string {
	if e.msg == "" {
		return "invalid arguments"
	}
	return e.msg
}

// ShowUsage writes the synopsis and flag defaults to w.
func (e *UsageError) ShowUsage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s\n\n", e.usage)
	e.flags.SetOutput(w)
	e.flags.PrintDefaults()
	fmt.Fprintln(w)
}
