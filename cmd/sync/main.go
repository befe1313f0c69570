package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/app"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/config"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/models"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/orchestrator"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Sync error: %v", err)
	}
}

func run(args []string) error {
	modeArg := ""
	if len(args) > 0 {
		modeArg = args[0]
	}
	mode, err := orchestrator.ParseMode(modeArg)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, runErr := a.Orchestrator.Run(ctx, mode)
	if result != nil {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Println(string(out))
	}
	if runErr != nil {
		a.Logger.Error("sync run aborted", zap.Error(runErr))
	}
	return exitError(result, runErr)
}

// exitError decides the process outcome. A run in which every operation
// failed is an error; a partial run is not.
func exitError(result *orchestrator.RunResult, runErr error) error {
	if runErr != nil {
		return runErr
	}
	if result != nil && result.Status == models.SyncRunFailed {
		return errors.New("all sync operations failed")
	}
	return nil
}
