package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, closeLog := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	if cerr := closeLog(); cerr != nil {
		fmt.Fprintln(os.Stderr, "close log file:", cerr)
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
