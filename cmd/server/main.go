package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/backup"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/config"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/logging"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/repository"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/server"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	accounts := store.NewAccountStore(
		repository.NewAccountFile(cfg.AccountsPath()),
		repository.NewListingFile(cfg.ListingsPath()),
		logger,
	)
	if _, err := accounts.Reload(); err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	convs := store.NewConversationStore(
		repository.NewConversationFiles(cfg.MessagesPath()),
		repository.NewIndexFile(cfg.IndexPath()),
		logger,
	)
	if _, err := convs.Reload(); err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var uploader server.Uploader
	if cfg.BackupEnabled() {
		up, err := backup.New(ctx, backup.Options{
			Bucket:          cfg.BackupBucket,
			Prefix:          cfg.BackupPrefix,
			CredentialsFile: cfg.BackupCredentialsFile,
			Root:            cfg.DataDir,
		}, logger)
		if err != nil {
			return fmt.Errorf("init backup: %w", err)
		}
		defer up.Close()
		uploader = up
		logger.Info("backup enabled", "bucket", cfg.BackupBucket, "prefix", cfg.BackupPrefix)
	}

	srv := server.New(server.Config{
		TCPAddr:          cfg.TCPAddr,
		AdminAddr:        cfg.AdminAddr(),
		MaxFrameBytes:    cfg.MaxFrameBytes,
		AutoSaveInterval: cfg.AutoSaveInterval,
	}, accounts, convs, uploader, logger)
	return srv.Run(ctx)
}
