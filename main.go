package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fjacquet/stmt-import/cmd/accounts"
	"fjacquet/stmt-import/cmd/load"
	"fjacquet/stmt-import/cmd/payees"
	"fjacquet/stmt-import/cmd/root"
	"fjacquet/stmt-import/cmd/seed"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(load.Cmd)
	root.Cmd.AddCommand(accounts.Cmd)
	root.Cmd.AddCommand(payees.Cmd)
	root.Cmd.AddCommand(seed.Cmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.Cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
