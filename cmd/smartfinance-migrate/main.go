package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/smartfinance/smartfinance/internal/config"
	journalpostgres "github.com/smartfinance/smartfinance/internal/journal/postgres"
	"github.com/smartfinance/smartfinance/internal/migrations"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up|down|pending")
	steps := flag.Int("steps", 0, "number of migration steps; 0 means all for up, 1 for down")
	flag.Parse()

	_ = config.LoadDotEnv()
	cfg, err := config.LoadFromEnv("smartfinance-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Journal.DSN == "" {
		fmt.Fprintln(os.Stderr, "SMARTFINANCE_JOURNAL_DSN is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := journalpostgres.Open(ctx, journalpostgres.DBConfig{DSN: cfg.Journal.DSN, MaxOpenConns: 1})
	if err != nil {
		fmt.Fprintf(os.Stderr, "database error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	runner := migrations.NewRunner()
	switch *direction {
	case "up":
		applied, err := runner.Up(ctx, db, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migration up failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("applied %d migration(s)\n", applied)
	case "down":
		applied, err := runner.Down(ctx, db, *steps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migration down failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("rolled back %d migration(s)\n", applied)
	case "pending":
		pending, err := runner.Pending(ctx, db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migration status failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d pending migration(s)\n", pending)
	default:
		fmt.Fprintf(os.Stderr, "invalid direction: %s\n", *direction)
		os.Exit(1)
	}
}
