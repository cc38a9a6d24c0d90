package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"stepperhub/host/client"
	"stepperhub/host/monitor"
	"stepperhub/host/serial"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	limitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type PortsCommand struct{}

func (c *PortsCommand) Execute(args []string) error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println(dimStyle.Render("No serial ports found"))
		return nil
	}
	for _, p := range ports {
		fmt.Println(" ", p)
	}
	return nil
}

type SendCommand struct {
	Args struct {
		Request []string `positional-arg-name:"request" required:"1"`
	} `positional-args:"yes"`
}

func (c *SendCommand) Execute(args []string) error {
	cl, closeFn, err := connect()
	if err != nil {
		return err
	}
	defer closeFn()
	return send(cl, strings.Join(c.Args.Request, ""))
}

type MoveCommand struct {
	Args struct {
		Axis     string `positional-arg-name:"axis" required:"yes"`
		Position string `positional-arg-name:"position" required:"yes"`
	} `positional-args:"yes"`
	Wait time.Duration `long:"wait" default:"1m" description:"How long to wait for arrival"`
}

func (c *MoveCommand) Execute(args []string) error {
	cl, closeFn, err := connect()
	if err != nil {
		return err
	}
	defer closeFn()
	return move(cl, c.Args.Axis, c.Args.Position, c.Wait)
}

type WatchCommand struct {
	Interval time.Duration `short:"i" long:"interval" default:"200ms" description:"Refresh interval"`
	Args     struct {
		Axes string `positional-arg-name:"axes" default:"XYZ"`
	} `positional-args:"yes"`
}

func (c *WatchCommand) Execute(args []string) error {
	cl, closeFn, err := connect()
	if err != nil {
		return err
	}
	defer closeFn()
	return monitor.Run(cl, []byte(strings.ToUpper(c.Args.Axes)), c.Interval)
}

// printResponse renders a reply, coloured by outcome.
func printResponse(resp client.Response) {
	style := okStyle
	switch resp.Kind {
	case client.KindLimit:
		style = limitStyle
	case client.KindError:
		style = errorStyle
	}
	fmt.Println(style.Render(resp.Lines[0]))
	for _, line := range resp.Lines[1:] {
		fmt.Println(line)
	}
}

func send(cl *client.Client, req string) error {
	resp, err := cl.Send(context.Background(), req)
	if err != nil {
		return err
	}
	printResponse(resp)
	return nil
}

func move(cl *client.Client, axisArg, posArg string, wait time.Duration) error {
	if len(axisArg) != 1 {
		return errors.New("axis must be a single character")
	}
	axis := strings.ToUpper(axisArg)[0]
	pos, err := strconv.ParseInt(posArg, 10, 32)
	if err != nil {
		return fmt.Errorf("bad position %q: %w", posArg, err)
	}

	resp, err := cl.MoveTo(context.Background(), axis, int32(pos))
	if err != nil {
		return err
	}
	printResponse(resp)

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	a, err := cl.WaitArrival(ctx, axis)
	if err != nil {
		return fmt.Errorf("waiting for %c: %w", axis, err)
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("%c arrived at %d after %v", a.Axis, a.Position, time.Since(start).Round(time.Millisecond))))
	return nil
}
