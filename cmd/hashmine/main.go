// Command hashmine traverses a mine with coordinators and workers.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// exitError carries the exit code of a finished command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hashmine",
		Short:         "Solve every room of a mine with coordinators and workers",
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newForestCmd())
	return root
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		fmt.Fprintln(stderr, exit.err)
		return exit.code
	}

	fmt.Fprintf(stderr, "hashmine failed: %v\n", err)
	return 1
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
