package main

import (
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"stepperhub/host/client"
)

type Options struct {
	Device  string        `short:"d" long:"device" default:"/dev/ttyACM0" description:"Serial device path"`
	Baud    int           `short:"b" long:"baud" default:"115200" description:"Baud rate (ignored for USB CDC)"`
	Sim     bool          `long:"sim" description:"Talk to an in-process simulator instead of a device"`
	Timeout time.Duration `long:"timeout" default:"2s" description:"Reply timeout"`

	Ports PortsCommand `command:"ports" description:"List serial ports"`
	Send  SendCommand  `command:"send" description:"Send one request and print the reply"`
	Move  MoveCommand  `command:"move" description:"Move an axis and wait for it to arrive"`
	Watch WatchCommand `command:"watch" description:"Live view of axis state"`
	Shell ShellCommand `command:"shell" description:"Interactive request shell"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "StepperHub host - talks to a stepper controller over its text protocol"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// connect opens the controller selected by the global options.
func connect() (*client.Client, func(), error) {
	var (
		c       *client.Client
		closeFn func()
		err     error
	)
	if opts.Sim {
		c, closeFn, err = connectSim()
	} else {
		c, closeFn, err = connectDevice(opts.Device, opts.Baud)
	}
	if err != nil {
		return nil, nil, err
	}
	c.SetTimeout(opts.Timeout)
	return c, closeFn, nil
}
