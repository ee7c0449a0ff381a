package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oklog/run"

	unicorncmd "my-unicorn/internal/cli/cmd"
	"my-unicorn/internal/logger"
)

// exitInterrupted follows the shell convention of 128+SIGINT.
const exitInterrupted = 130

var errInterrupted = errors.New("interrupted")

func main() {
	os.Exit(runMain())
}

func runMain() int {
	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				return errInterrupted
			},
			func(error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		g.Add(
			func() error {
				return unicorncmd.Execute(ctx)
			},
			func(error) {
				cancel()
			},
		)
	}

	if err := g.Run(); err != nil {
		return exitCode(err)
	}
	return unicorncmd.ExitOK
}

func exitCode(err error) int {
	var ee *unicorncmd.ExitError
	switch {
	case errors.As(err, &ee):
		if ee.Err != nil {
			fmt.Fprintln(os.Stderr, ee.Err)
		}
		return ee.Code
	case errors.Is(err, errInterrupted):
		logger.Debug().Msg("termination signal received")
		fmt.Fprintln(os.Stderr, err)
		return exitInterrupted
	default:
		fmt.Fprintln(os.Stderr, err)
		return unicorncmd.ExitCLIError
	}
}
