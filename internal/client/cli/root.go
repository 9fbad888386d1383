package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	touch(ctx context.Context)
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Create(ctx context.Context) error
	Sync(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
}

// runREPL starts a simple read-eval-print loop for the CargoTrail CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit". Every dispatched command counts as user activity for the
// inactivity monitor.
//
// Commands:
//
//	Not logged in:
//	  - help           show available commands
//	  - login          authenticate
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - help           show available commands
//	  - whoami         show the current user (alias: status)
//	  - (l)ist         list shipments (alias: shipments)
//	  - show <id>      show a single shipment
//	  - create         register a new shipment
//	  - sync <id>      re-pull tracker data for a shipment
//	  - upload <file>  upload a manifest report
//	  - logout         log out
//	  - exit | quit    leave the program
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ct> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		a.touch(ctx)

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, (l)ist, show <id>, create, sync <id>, upload <file>, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami", "status":
			_ = a.Whoami(ctx)

		case "l", "list", "shipments":
			_ = a.List(ctx)

		case "show":
			_ = a.Show(ctx, args)

		case "create":
			_ = a.Create(ctx)

		case "sync":
			_ = a.Sync(ctx, args)

		case "upload":
			_ = a.Upload(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func (a *App) getStatus() string {
	name := a.currentUserName()
	if name == "" {
		return "(not logged in)"
	}
	return fmt.Sprintf("(%s)", name)
}

// Root runs the REPL over stdin until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to CargoTrail CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// touch records user activity with the inactivity monitor.
func (a *App) touch(ctx context.Context) {
	a.monitor.Touch(ctx)
}
