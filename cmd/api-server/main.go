package main

import (
	"context"
	"flag"
	"os"

	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/samber/oops"

	"github.com/medunigraz/idmsync/internal/api"
	"github.com/medunigraz/idmsync/internal/async"
	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/db"
	"github.com/medunigraz/idmsync/internal/log"
	"github.com/medunigraz/idmsync/internal/repo/sql"
	"github.com/medunigraz/idmsync/utils/cmd"
)

var (
	gracefulShutdownSec     = flag.Int64("graceful-shutdown", 1, "graceful shutdown seconds")
	gracefulShutdownMessage = flag.String("graceful-shutdown-message", "Graceful shutdown in %d seconds",
		"graceful shutdown message")
)

func run(ctx context.Context, cfg *config.Config) error {
	err := logger.InitAsDefault(cfg.Logger, cfg.Application)
	if err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to initialise the logger")
	}

	dbCon, err := db.StartDB(ctx, cfg)
	if err != nil {
		return oops.In("main").Wrapf(err, "failed to start the database")
	}

	asyncApp, err := async.New(cfg)
	if err != nil {
		return oops.In("main").Wrapf(err, "failed to create the async app")
	}

	server := api.NewServer(cfg.HTTP, sql.NewRepository(dbCon), asyncApp)

	go func() {
		err := server.Start(ctx)
		if err != nil {
			log.Error(ctx, "Failure on the admin API server", err)
		}
	}()

	<-ctx.Done()

	err = server.Shutdown(context.WithoutCancel(ctx))
	if err != nil {
		return oops.In("main").Wrapf(err, "failed to shutdown the server")
	}

	err = asyncApp.Shutdown(ctx)
	if err != nil {
		return oops.In("main").Wrapf(err, "failed to shutdown the async app")
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
		Env:                     "API_SERVER",
	})
	os.Exit(exitCode)
}
