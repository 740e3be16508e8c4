package main

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/mindnestapp/mindnest/pkg/config"
	"github.com/mindnestapp/mindnest/pkg/database"
	"github.com/mindnestapp/mindnest/pkg/migrations"
	"github.com/mindnestapp/mindnest/pkg/server"
	"github.com/mindnestapp/mindnest/pkg/storage"
	"github.com/mindnestapp/mindnest/pkg/version"
	"github.com/mindnestapp/mindnest/pkg/worker"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting mindnest", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	var store storage.ObjectStore
	if cfg.StorageEndpoint != "" {
		store, err = storage.NewService(cfg)
		if err != nil {
			log.Err(err).Fatal("object storage error")
		}
		log.Info("object storage configured", logger.Data{"endpoint": cfg.StorageEndpoint, "bucket": cfg.StorageBucket})
	} else {
		log.Warn("object storage not configured; media uploads disabled")
	}

	srv, services, err := server.New(cfg, db, store)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	wrkr := worker.New(cfg, services.Auth, services.Stories)

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}

		log.Info("server started", logger.Data{"port": listener.Addr().(*net.TCPAddr).Port})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started")

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
