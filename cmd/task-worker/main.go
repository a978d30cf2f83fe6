package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/samber/oops"

	"github.com/medunigraz/idmsync/internal/async"
	"github.com/medunigraz/idmsync/internal/config"
	idmlog "github.com/medunigraz/idmsync/internal/log"
)

func start() error {
	ctx, cancelOnSignal := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)

	defer cancelOnSignal()

	cfg, err := config.LoadConfig(commoncfg.WithEnvOverride("TASK_WORKER"))
	if err != nil {
		return oops.In("main").Wrapf(err, "failed to load the config")
	}

	// LoggerConfig initialisation
	err = logger.InitAsDefault(cfg.Logger, cfg.Application)
	if err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to initialise the logger")
	}

	worker, err := async.New(cfg)
	if err != nil {
		return oops.In("main").Wrapf(err, "failed to create the worker")
	}

	err = worker.RunWorker(ctx, cfg)
	if err != nil {
		return oops.In("main").Wrapf(err, "failed to start the worker")
	}

	<-ctx.Done()

	err = worker.Shutdown(ctx)
	if err != nil {
		return oops.In("main").Wrapf(err, "%s", async.ErrClientShutdown.Error())
	}

	idmlog.Info(ctx, "shutting down worker")

	return nil
}

func main() {
	err := start()
	if err != nil {
		log.Fatal(err)
	}
}
