package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smartfinance/smartfinance/internal/app"
	"github.com/smartfinance/smartfinance/internal/cli/console"
	"github.com/smartfinance/smartfinance/internal/config"
	"github.com/smartfinance/smartfinance/internal/observability"
)

func main() {
	secretsErr := config.LoadDotEnv()
	cfg, err := config.LoadFromEnv("smartfinance-chat")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so they do not interleave with the conversation.
	logger := observability.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("🤖 Smart Finance")
	fmt.Println()

	application, err := app.New(ctx, cfg, logger, secretsErr)
	if err != nil {
		if application != nil {
			_ = console.Run(ctx, console.Options{Out: os.Stdout, Startup: application.Startup})
		} else {
			fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		}
		os.Exit(1)
	}
	defer func() { _ = application.Close() }()

	err = console.Run(ctx, console.Options{
		In:      os.Stdin,
		Out:     os.Stdout,
		Startup: application.Startup,
		Service: application.Service,
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "console error: %v\n", err)
		os.Exit(1)
	}
}
