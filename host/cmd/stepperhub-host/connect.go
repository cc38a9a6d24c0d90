package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"stepperhub/host/client"
	"stepperhub/host/serial"
	"stepperhub/sim"
)

func connectDevice(device string, baud int) (*client.Client, func(), error) {
	cfg := serial.DefaultConfig(device)
	cfg.Baud = baud
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	fmt.Fprintf(os.Stderr, "Connected to %s\n", device)

	c := client.New(port)
	return c, func() { c.Close() }, nil
}

// connectSim serves a simulated X/Y/Z controller over in-memory pipes.
func connectSim() (*client.Client, func(), error) {
	m, err := sim.New(nil, nil)
	if err != nil {
		return nil, nil, err
	}
	fmt.Fprintln(os.Stderr, "Using simulated X/Y/Z controller")

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, inR, outW) }()

	c := client.New(struct {
		io.Reader
		io.Writer
	}{outR, inW})

	return c, func() {
		cancel()
		<-done
		inW.Close()
		outR.Close()
	}, nil
}
