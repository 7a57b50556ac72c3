// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

// Flowlog-record acquires flow measurements from a serial flow meter
// and appends them to a durable CSV log, one session per target flow.
//
// On a terminal, each session shows a live display (latest flow,
// trailing average, sparkline, session counters); press q to end the
// session, after which the operator is offered another target flow.
// Without a terminal the binary runs headless: --target is required
// and the session runs until a signal or a fatal transport error.
//
// Configuration is read from the file named by --config (or the
// FLOWLOG_CONFIG environment variable); flags override the file.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/hydrolab/flowlog/lib/acquire"
	"github.com/hydrolab/flowlog/lib/clock"
	"github.com/hydrolab/flowlog/lib/config"
	"github.com/hydrolab/flowlog/lib/flowui"
	"github.com/hydrolab/flowlog/lib/livebuf"
	"github.com/hydrolab/flowlog/lib/metric"
	"github.com/hydrolab/flowlog/lib/process"
	"github.com/hydrolab/flowlog/lib/serial"
	"github.com/hydrolab/flowlog/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var targetFlow float64
	var device string
	var logPath string
	var metricsAddress string
	var logOutput string

	flagSet := pflag.NewFlagSet("flowlog-record", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "configuration file (default: $FLOWLOG_CONFIG)")
	flagSet.Float64Var(&targetFlow, "target", 0, "target flow in l/s (prompted on a terminal when omitted)")
	flagSet.StringVar(&device, "device", "", "serial device node (overrides config)")
	flagSet.StringVar(&logPath, "log", "", "measurement log path (overrides config)")
	flagSet.StringVar(&metricsAddress, "metrics-addr", "", "Prometheus listen address (overrides config)")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file instead of stderr")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("flowlog-record")
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

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if device != "" {
		cfg.Serial.Device = device
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}
	if metricsAddress != "" {
		cfg.MetricsAddress = metricsAddress
	}

	logger, cleanup, err := openLogger(logOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := metric.NewPipeline(registry)
	if cfg.MetricsAddress != "" {
		server := metric.NewServer(registry, logger)
		go func() {
			if err := server.ListenAndServe(ctx, cfg.MetricsAddress); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	prompter := bufio.NewScanner(os.Stdin)

	for {
		target := targetFlow
		if target == 0 && interactive {
			target, err = promptTargetFlow(prompter)
			if err != nil {
				return err
			}
		}
		if target <= 0 {
			return fmt.Errorf("a positive --target is required (got %g)", target)
		}

		if err := runSession(ctx, cfg, target, metrics, logger, interactive); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		// --target pins the binary to one session; the interactive
		// prompt loop only runs when the operator chooses targets.
		if targetFlow != 0 || !interactive {
			return nil
		}
		again, err := promptYesNo(prompter, "Log another target flow? [y/N] ")
		if err != nil || !again {
			return err
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// openLogger builds the session logger. With --log-output, full JSON
// records go to the file and the terminal stays clean for the display;
// otherwise warnings and errors go to stderr.
func openLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
		return slog.New(handler), func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log output %s: %w", path, err)
	}
	handler := slog.NewJSONHandler(file, nil)
	return slog.New(handler), func() { file.Close() }, nil
}

// runSession runs one acquisition session to completion. On a terminal
// the session is wrapped in the live display; headless it runs until
// the context ends or the transport fails.
func runSession(ctx context.Context, cfg *config.Config, target float64, metrics *metric.Pipeline, logger *slog.Logger, interactive bool) error {
	capacity := cfg.LiveCapacity
	if capacity == 0 {
		capacity = livebuf.DefaultCapacity
	}
	live := livebuf.New(capacity)

	controller, err := acquire.New(acquire.Config{
		TargetFlow: target,
		OpenSource: func() (serial.LineSource, error) {
			return serial.OpenPort(serial.PortConfig{
				Device:      cfg.Serial.Device,
				BaudRate:    cfg.Serial.BaudRate,
				ReadTimeout: cfg.ReadTimeout(),
			})
		},
		LogPath:       cfg.LogPath,
		Live:          live,
		MaxFrameLines: cfg.MaxFrameLines,
		Metrics:       metrics,
		Clock:         clock.Real(),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	if !interactive {
		return controller.Run(ctx)
	}

	model := flowui.NewModel(live, controller, target, cfg.PollEvery())
	program := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan error, 1)
	go func() {
		err := controller.Run(ctx)
		done <- err
		program.Send(flowui.SessionDoneMsg{Err: err})
	}()

	finalModel, uiErr := program.Run()
	controller.Stop()
	sessionErr := <-done

	if uiErr != nil {
		return fmt.Errorf("display failed: %w", uiErr)
	}
	if final, ok := finalModel.(flowui.Model); ok && final.Err() != nil {
		return final.Err()
	}
	return sessionErr
}

func promptTargetFlow(scanner *bufio.Scanner) (float64, error) {
	for {
		fmt.Print("Target flow (l/s): ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("reading target flow: %w", err)
			}
			return 0, io.ErrUnexpectedEOF
		}
		text := strings.TrimSpace(scanner.Text())
		value, err := strconv.ParseFloat(text, 64)
		if err != nil || value <= 0 {
			fmt.Fprintf(os.Stderr, "enter a positive number, e.g. 2.5\n")
			continue
		}
		return value, nil
	}
}

func promptYesNo(scanner *bufio.Scanner, prompt string) (bool, error) {
	fmt.Print(prompt)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes", nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Flowlog recorder: logs flow-meter measurements to CSV.

Each run of a session reads the meter's measurement bursts from the
serial port, extracts one record per burst, and appends it to the
measurement log. The log survives across sessions; the header is
written only when the file is first created.

Usage:
  flowlog-record [flags]

Examples:
  # Interactive: prompt for the target flow, show the live display
  flowlog-record

  # One unattended session at 2.5 l/s
  flowlog-record --target 2.5 --device /dev/ttyUSB1 --log bench.csv

  # With a config file and Prometheus metrics
  flowlog-record --config bench.yaml --metrics-addr localhost:9590

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
