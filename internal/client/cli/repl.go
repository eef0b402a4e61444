package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Profile(ctx context.Context) error
	EditProfile(ctx context.Context) error
	VerifyEmail(ctx context.Context, link string) error
	Open(ctx context.Context, location string) error
	Status(ctx context.Context) error
	Navigate(ctx context.Context)
}

// runREPL starts a simple read–eval–print loop for the ShopDash CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. After every command pending redirects are
// followed. The loop exits on EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  - help           show available commands
//	  - register       create an account
//	  - login          sign in
//	  - verify-email <link>  confirm an email address
//	  - open <path>    open a page
//	  - status         show session state
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - whoami         show the signed-in user
//	  - profile        show the profile
//	  - edit-profile   change profile fields
//	  - verify-email <link>  confirm an email address
//	  - open <path>    open a page
//	  - status         show session state
//	  - logout         sign out
//	  - exit | quit    leave the program
//
// Errors returned by command handlers are reported by the handlers
// themselves; the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("shopdash %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, profile, edit-profile, verify-email <link>, open <path>, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, verify-email <link>, open <path>, status, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "profile":
			_ = a.Open(ctx, "/profile")

		case "edit-profile":
			_ = a.EditProfile(ctx)

		case "verify-email":
			if len(args) == 0 {
				printlnFn("Usage: verify-email <link>")
				continue
			}
			_ = a.VerifyEmail(ctx, args[0])

		case "open":
			if len(args) == 0 {
				printlnFn("Usage: open <path>")
				continue
			}
			_ = a.Open(ctx, args[0])

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		a.Navigate(ctx)
	}
}
