package main

import (
	"context"
	"flag"
	"os"

	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/samber/oops"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/db"
	"github.com/medunigraz/idmsync/utils/cmd"
)

const defaultGracefulShutdown = 1

var (
	gracefulShutdownSec     = flag.Int64("graceful-shutdown", defaultGracefulShutdown, "graceful shutdown seconds")
	gracefulShutdownMessage = flag.String(
		"graceful-shutdown-message",
		"Graceful shutdown in %d seconds",
		"graceful shutdown message",
	)
	version  = flag.Int64("version", 0, "run migration until targeted version")
	rollback = flag.Bool("r", false, "run down migrations (rollback)")
)

func run(ctx context.Context, cfg *config.Config) error {
	err := logger.InitAsDefault(cfg.Logger, cfg.Application)
	if err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to initialise the logger")
	}

	m, err := db.NewMigrator(cfg)
	if err != nil {
		return err
	}

	if *version != 0 {
		err = m.MigrateTo(ctx, *rollback, *version)
	} else {
		err = m.MigrateToLatest(ctx, *rollback)
	}

	if err != nil {
		return err
	}

	return nil
}

// main is the entry point for the application. It is intentionally kept small
// because it is hard to test, which would lower test coverage.
func main() {
	flag.Parse()

	exitCode := cmd.RunFuncWithSignalHandling(run, cmd.RunFlags{
		GracefulShutdownSec:     *gracefulShutdownSec,
		GracefulShutdownMessage: *gracefulShutdownMessage,
		Env:                     "DB_MIGRATOR",
	})
	os.Exit(exitCode)
}
