// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Flowlog-report summarizes a measurement log offline. It groups the
// records by target flow and prints per-group statistics (mean, spread,
// extremes, duration) plus a trailing rolling average of the flow.
//
// Gzip-compressed logs (a .gz suffix) are read transparently, so
// archived bench logs don't need to be unpacked first.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/hydrolab/flowlog/lib/process"
	"github.com/hydrolab/flowlog/lib/report"
	"github.com/hydrolab/flowlog/lib/store"
	"github.com/hydrolab/flowlog/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var input string
	var window time.Duration

	flagSet := pflag.NewFlagSet("flowlog-report", pflag.ContinueOnError)
	flagSet.StringVar(&input, "input", "flow_log.csv", "measurement log to summarize (.gz accepted)")
	flagSet.DurationVar(&window, "window", report.DefaultRollingWindow, "rolling average window")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("flowlog-report")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}
	if window <= 0 {
		return fmt.Errorf("--window must be positive, got %s", window)
	}

	records, err := store.ReadLog(input)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%s contains no records", input)
	}

	groups := report.Build(records, window)
	fmt.Print(report.Render(groups))
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Flowlog report: offline summary of a measurement log.

Usage:
  flowlog-report [flags]

Examples:
  # Summarize the default log
  flowlog-report

  # Summarize an archived log with a 30s rolling window
  flowlog-report --input runs/2026-08-12.csv.gz --window 30s

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
