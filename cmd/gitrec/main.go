// Command gitrec runs the recommendation API and drives it from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/gitrec/internal/platform/apierr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+describeError(err))
		os.Exit(exitCode(err))
	}
}

// exitCode lets scripts tell input problems apart from auth and server failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case apierr.IsValidation(err):
		return 2
	case apierr.IsAuth(err) || errors.Is(err, errNotLoggedIn):
		return 3
	default:
		return 1
	}
}
