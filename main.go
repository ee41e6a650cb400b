// enginectl - a session controller for UCI and Xboard chess engines.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"enginectl/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "enginectl: %v\n", err)
		os.Exit(1)
	}
}
