// ibloom builds, queries and inspects persisted Bloom filter snapshots.
//
// Usage Examples
// ==============
//
// Build a filter sized for 10k keys at a 1% error rate from a key list (one
// key per line):
//
//	ibloom build -out users.ibf -capacity 10000 -error-rate 0.01 -in users.txt
//
// Build with an explicit bitfield size and the single-checksum strategy,
// keeping the bitfield and its parameters in separate files:
//
//	ibloom build -out users.bits -format detached -size 4096 -capacity 1000 -strategy checksum < users.txt
//
// Query keys (prints 1 for "possibly present", 0 for "definitely absent"):
//
//	ibloom check -snapshot users.ibf alice bob
//
// Show parameters, fill ratio and estimated false positive rate:
//
//	ibloom inspect -snapshot users.ibf
//
// Exit Codes
// ==========
//
// 0: Success.
// 1: The command failed (unreadable or corrupted snapshot, I/O error).
// 2: Invalid usage.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// errUsage marks errors caused by bad command-line input.
var errUsage = errors.New("usage")

type application struct {
	logger *slog.Logger
	router *Router
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApplication(stdin io.Reader, stdout, stderr io.Writer) *application {
	app := &application{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(stderr, nil)),
	}
	app.router = app.commands()
	return app
}

func main() {
	app := newApplication(os.Stdin, os.Stdout, os.Stderr)
	os.Exit(app.run(os.Args[1:]))
}

// run parses global flags, dispatches the subcommand and maps the outcome to
// an exit code.
func (app *application) run(args []string) int {
	fs := flag.NewFlagSet("ibloom", flag.ContinueOnError)
	fs.SetOutput(app.stderr)
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Usage = func() {
		fmt.Fprintf(app.stderr, "usage: ibloom [-v] <%s> [flags]\n", app.router.Names())
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *verbose {
		app.logger = slog.New(slog.NewTextHandler(app.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	err := app.router.Dispatch(fs.Args())
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(app.stderr, "ibloom: %v\n", err)
		return 2
	default:
		app.logger.Error("command failed", "command", fs.Arg(0), "error", err)
		return 1
	}
}
