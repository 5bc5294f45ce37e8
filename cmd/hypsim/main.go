package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/celestiaorg/hyperlane-core/cmd/hypsim/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := cmd.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
