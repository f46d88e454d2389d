package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// helpExitAnnotation marks commands whose --help output counts as a failed
// invocation. Scripts wrapping trim rely on a non-zero status there.
const helpExitAnnotation = "helpExitCode"

// exitError carries a specific exit status. Commands return it after they
// already printed their own summary, so msg is usually empty.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return "exit status " + strconv.Itoa(e.code)
}

func main() {
	os.Exit(execute(newRootCommand(), os.Stderr))
}

func execute(root *cobra.Command, stderr io.Writer) int {
	executed, err := root.ExecuteC()
	if err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.msg != "" {
				fmt.Fprintln(stderr, exit.msg)
			}
			return exit.code
		}
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	if helpRequested(executed) {
		if value, ok := executed.Annotations[helpExitAnnotation]; ok {
			if code, convErr := strconv.Atoi(value); convErr == nil {
				return code
			}
		}
	}
	return 0
}

func helpRequested(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	flag := cmd.Flags().Lookup("help")
	return flag != nil && flag.Value.String() == "true"
}
