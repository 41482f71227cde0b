package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/passfold/passfold-server/internal/api/http/router"
	httpServer "github.com/passfold/passfold-server/internal/api/http/server"
	"github.com/passfold/passfold-server/internal/config"
	"github.com/passfold/passfold-server/internal/crypto"
	"github.com/passfold/passfold-server/internal/logger"
	"github.com/passfold/passfold-server/internal/model"
	"github.com/passfold/passfold-server/internal/repository/postgres"
	"github.com/passfold/passfold-server/internal/server"
	"github.com/passfold/passfold-server/internal/service"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	codec, err := crypto.NewCodec(cfg.Crypto.Key)
	if err != nil {
		logger.Fatal("failed to initialize secret codec", "error", err)
	}

	accountRepo := postgres.NewAccountRepository(db)
	folderRepo := postgres.NewFolderRepository(db)
	credentialRepo := postgres.NewCredentialRepository(db)

	directoryService := service.NewDirectory(accountRepo, codec, logger)
	vaultService := service.NewVault(folderRepo, credentialRepo, codec, logger)

	if err := directoryService.EnsureAdmin(ctx); err != nil {
		logger.Fatal("failed to ensure admin account", "error", err)
	}

	r := router.New(directoryService, vaultService, cfg.HTTP.AllowedOrigins, logger)
	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
