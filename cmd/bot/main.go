package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Alex-cat-ui/Reminder-bot/internal/app"
	"github.com/Alex-cat-ui/Reminder-bot/internal/config"
	"github.com/Alex-cat-ui/Reminder-bot/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer log.Sync() //nolint:errcheck

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("init failed: " + err.Error())
	}

	if err := a.Run(context.Background()); err != nil {
		log.Fatal("run failed: " + err.Error())
	}
}
