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
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ListFolders(ctx context.Context) error
	AddFolder(ctx context.Context) error
	RenameFolder(ctx context.Context) error
	DeleteFolder(ctx context.Context) error
	ListReadings(ctx context.Context) error
	AddReading(ctx context.Context) error
	ShowReading(ctx context.Context) error
	EditReading(ctx context.Context) error
	DeleteReading(ctx context.Context) error
	ListNotes(ctx context.Context) error
	AddNote(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the journal CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("arcana %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			printlnFn("Journal:  folders, addfolder, renamefolder, rmfolder, (l)ist, addreading, show, editreading, rmreading, notes, addnote")
			printlnFn("Sync:     sync, status")
			if a.isLoggedIn() {
				printlnFn("Account:  logout, exit")
			} else {
				printlnFn("Account:  register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "folders":
			_ = a.ListFolders(ctx)

		case "addfolder":
			_ = a.AddFolder(ctx)

		case "renamefolder":
			_ = a.RenameFolder(ctx)

		case "rmfolder":
			_ = a.DeleteFolder(ctx)

		case "l", "list":
			_ = a.ListReadings(ctx)

		case "addreading":
			_ = a.AddReading(ctx)

		case "show":
			_ = a.ShowReading(ctx)

		case "editreading":
			_ = a.EditReading(ctx)

		case "rmreading":
			_ = a.DeleteReading(ctx)

		case "notes":
			_ = a.ListNotes(ctx)

		case "addnote":
			_ = a.AddNote(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
