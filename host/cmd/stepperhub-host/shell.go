package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"

	"stepperhub/protocol"
)

type ShellCommand struct{}

func (c *ShellCommand) Execute(args []string) error {
	cl, closeFn, err := connect()
	if err != nil {
		return err
	}
	defer closeFn()

	fmt.Println("Enter requests or commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		words, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(words) == 0 {
			continue
		}

		switch strings.ToLower(words[0]) {
		case "quit", "exit", "q":
			return nil

		case "help", "?":
			printHelp()

		case "ports":
			err = (&PortsCommand{}).Execute(nil)

		case "move":
			if len(words) != 3 {
				fmt.Println("Usage: move <axis> <position>")
				continue
			}
			err = move(cl, words[1], words[2], opts.Timeout*30)

		case "get":
			if len(words) < 2 {
				fmt.Println("Usage: get <axis> [parameter]")
				continue
			}
			req := "GET" + words[1]
			if len(words) > 2 {
				req += "." + strings.ToUpper(words[2])
			}
			err = send(cl, req)

		default:
			// Anything else goes to the controller verbatim.
			err = send(cl, strings.Join(words, ""))
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	return scanner.Err()
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help                 - Show this help message")
	fmt.Println("  ports                - List serial ports")
	fmt.Println("  get <axis> [param]   - Read a parameter (default CURRENTPOSITION)")
	fmt.Println("  move <axis> <pos>    - Move an axis and wait for it to arrive")
	fmt.Println("  <request>            - Send a raw request, e.g. SETX.MAXSPS:8000")
	fmt.Println("  quit/exit/q          - Exit the shell")
	fmt.Println()
	fmt.Println("Parameters:", strings.Join(parameterNames(), ", "))
	fmt.Println()
}

func parameterNames() []string {
	names := []string{protocol.ParamAll.String()}
	for _, p := range protocol.ListedParameters() {
		names = append(names, p.String())
	}
	return names
}
