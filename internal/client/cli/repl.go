package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it.
type execIface interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, args []string) error
	Read(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Update(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Register(ctx context.Context, args []string) error
	Orphans(ctx context.Context) error
	Token(ctx context.Context) error
}

const helpText = `Available commands:
  ping                               check the server
  create <owner> [-plain]            store a payload (JSON or text) and register it
  read <cid> [-raw]                  fetch a payload, decrypting unless -raw
  status <cid>                       show the on-chain record
  update <cid> <true|false> <owner>  change availability
  list                               list every registered resource
  register <cid> <owner> [-plain]    register content written earlier
  orphans                            list content stored but never registered
  token                              set the access token
  exit | quit                        leave the program`

// usage maps commands to the argument count they need.
var usage = map[string]struct {
	min  int
	text string
}{
	"create":   {1, "usage: create <owner> [-plain]"},
	"read":     {1, "usage: read <cid> [-raw]"},
	"status":   {1, "usage: status <cid>"},
	"update":   {3, "usage: update <cid> <true|false> <owner>"},
	"register": {2, "usage: register <cid> <owner> [-plain]"},
}

// runREPL reads commands from reader until EOF or exit. Handler errors are
// printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ss %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if u, ok := usage[cmd]; ok && len(args) < u.min {
			printlnFn(u.text)
			continue
		}

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "ping":
			cmdErr = a.Ping(ctx)

		case "create":
			cmdErr = a.Create(ctx, args)

		case "read":
			cmdErr = a.Read(ctx, args)

		case "status":
			cmdErr = a.Status(ctx, args)

		case "update":
			cmdErr = a.Update(ctx, args)

		case "l", "list":
			cmdErr = a.List(ctx)

		case "register":
			cmdErr = a.Register(ctx, args)

		case "orphans":
			cmdErr = a.Orphans(ctx)

		case "token":
			cmdErr = a.Token(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if errors.Is(err, io.EOF) {
			return
		}
	}
}
