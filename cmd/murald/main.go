package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"mural/internal/config"
	"mural/internal/daemon"
	"mural/internal/display"
	"mural/internal/gallery"
	"mural/internal/history"
	"mural/internal/ipc"
	"mural/internal/logging"
	"mural/internal/notifications"
	"mural/internal/reconcile"
	"mural/internal/runstore"
	"mural/internal/transform"
	"mural/internal/wallpaper"
	"mural/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogPath()},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := runstore.Open(cfg)
	if err != nil {
		logger.Error("open run store", logging.Error(err))
		return
	}

	notifier := notifications.NewService(cfg)
	cycle := workflow.NewCycle(workflow.Deps{
		Config:    cfg,
		Logger:    logger,
		Source:    gallery.NewHTTPClient(cfg),
		Pipeline:  transform.NewPipeline(cfg, logger),
		Committer: reconcile.New(cfg.Paths.DestinationDir, logger),
		History:   history.NewLedger(cfg.LedgerPath()),
		Monitors:  display.NewStaticProvider(cfg),
		Applier:   wallpaper.New(cfg, logger),
	})
	manager := workflow.NewManager(cfg, cycle, store, notifier, logger)

	d, err := daemon.New(cfg, store, manager, notifier, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = store.Close()
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, cancel, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("murald shutting down")
}
