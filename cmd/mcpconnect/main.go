package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/viant/mcpconnect/cli"
	_ "github.com/viant/scy/kms/blowfish"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.Run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
