// Command sexpfmt lays out s-expression source to fit a line width.
//
// The exit status is 0 on success, 2 when the input itself is at fault (a
// parse error, a bad width or config, a refused rewrite), 130 when
// interrupted and 1 for every other failure, including check finding
// sources that need formatting.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/sexpfmt/internal/cli"
	errs "github.com/matzehuels/sexpfmt/pkg/errors"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitBadInput    = 2
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns its exit status. Errors are
// reported on stderr, once.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := cli.New(stderr, cli.LogInfo).RootCommand()
	root.SilenceErrors = true
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	code := exitCode(err)
	switch code {
	case exitOK:
	case exitInterrupted:
		fmt.Fprintln(stderr, "sexpfmt: interrupted")
	default:
		fmt.Fprintln(stderr, "sexpfmt:", err)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errs.IsUserError(err):
		return exitBadInput
	default:
		return exitFailure
	}
}
