package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pribylovaa/flashcards-client/cmd/flashcards/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := commands.Execute(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}
