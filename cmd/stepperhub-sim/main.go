package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"stepperhub/config"
	"stepperhub/core"
	"stepperhub/sim"
)

var (
	configPath = flag.String("config", "", "Machine configuration JSON (default: X/Y/Z machine)")
	storePath  = flag.String("store", "", "Settings file (overrides store_path)")
	debug      = flag.Bool("debug", false, "Print debug messages and the event ring on exit")
)

func main() {
	flag.Parse()

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if cfg, err = config.LoadConfig(data); err != nil {
			return err
		}
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}

	core.SetDebugWriter(func(msg string) {
		fmt.Fprintln(os.Stderr, strings.TrimRight(msg, "\r\n"))
	})
	core.SetDebugEnabled(*debug)
	core.SetEventsEnabled(*debug)

	var store core.ConfigStore
	if cfg.StorePath != "" {
		store = config.NewFileStore(cfg.StorePath)
	}

	m, err := sim.New(cfg, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "stepperhub simulator: %d axes at %d Hz\n", m.Registry().Count(), cfg.ClockHz)
	err = m.Run(ctx, os.Stdin, os.Stdout)
	if *debug {
		core.DumpEventRing()
	}
	return err
}
