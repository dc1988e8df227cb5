package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	activeUser() string
	Users(ctx context.Context) error
	Login(ctx context.Context) error
	Switch(ctx context.Context, username string) error
	Deposit(ctx context.Context, amount string) error
	Cancel(ctx context.Context, orderID string) error
	History(ctx context.Context) error
	Balance(ctx context.Context) error
	Info(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands:
//
//	help              - show available commands
//	users             - list stored accounts
//	login             - register/update an account and make it active
//	switch <user>     - make a stored account active
//	deposit <amount>  - create and track a deposit order
//	cancel <orderID>  - stop tracking an order
//	history           - list the active user's orders
//	balance           - show the active user's wallet
//	info              - show the active user's profile
//	refresh           - make sure the active session is still valid
//	exit | quit       - leave the program
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		status := ""
		if u := a.activeUser(); u != "" {
			status = "(" + u + ") "
		}
		printlnFn(fmt.Sprintf("pk %s> ", status))
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

		switch cmd {
		case "help":
			printlnFn("Available commands: users, login, switch <user>, deposit <amount>, cancel <orderID>, history, balance, info, refresh, exit")

		case "users":
			_ = a.Users(ctx)

		case "login":
			_ = a.Login(ctx)

		case "switch":
			if len(args) == 0 {
				printlnFn("Usage: switch <user>")
				continue
			}
			_ = a.Switch(ctx, args[0])

		case "deposit":
			if len(args) == 0 {
				printlnFn("Usage: deposit <amount>")
				continue
			}
			_ = a.Deposit(ctx, args[0])

		case "cancel":
			if len(args) == 0 {
				printlnFn("Usage: cancel <orderID>")
				continue
			}
			_ = a.Cancel(ctx, args[0])

		case "history":
			_ = a.History(ctx)

		case "balance":
			_ = a.Balance(ctx)

		case "info":
			_ = a.Info(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
