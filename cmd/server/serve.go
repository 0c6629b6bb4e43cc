package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"riceMarketplace/internal/account"
	"riceMarketplace/internal/auth"
	"riceMarketplace/internal/catalog"
	"riceMarketplace/internal/config"
	"riceMarketplace/internal/db"
	grpcserver "riceMarketplace/internal/grpc"
	"riceMarketplace/internal/payqr"
	"riceMarketplace/internal/upload"
	"riceMarketplace/internal/web"
	"riceMarketplace/repository"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand() *cobra.Command {
	flags := newConfigFlags()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP site (and the gRPC catalog API when GRPC_ADDRESS is set)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log.Printf("Configuration loaded: %v", cfg)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()

	if err := os.MkdirAll(cfg.HTTP.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	farmers := repository.NewFarmerRepository(d)
	products := repository.NewProductRepository(d)

	var qr account.QRGenerator
	if cfg.QR.Enabled {
		qr = payqr.NewGenerator(cfg.HTTP.UploadDir)
	}
	accounts := account.NewService(farmers, qr)
	cat := catalog.NewService(products, farmers, upload.NewStore(cfg.HTTP.UploadDir))

	sessions, err := auth.NewSessions(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return err
	}

	e, err := web.New(accounts, cat, sessions, web.Options{
		StaticDir:      cfg.HTTP.StaticDir,
		UploadDir:      cfg.HTTP.UploadDir,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		CookieSecure:   cfg.Auth.CookieSecure,
		Logging:        true,
	})
	if err != nil {
		return fmt.Errorf("build web server: %w", err)
	}

	// gRPC starts first so a bad address fails before anything else is listening.
	var stopGRPC func(context.Context) error
	if cfg.GRPC.Address != "" {
		stopGRPC, err = grpcserver.StartGRPC(cfg.GRPC.Address, sessions, accounts, cat)
		if err != nil {
			return fmt.Errorf("start grpc: %w", err)
		}
		log.Printf("gRPC server listening on %s", cfg.GRPC.Address)
	}

	errc := make(chan error, 1)
	go func() {
		if err := e.Start(cfg.HTTP.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	log.Printf("HTTP server listening on %s", cfg.HTTP.Address)

	var httpErr error
	select {
	case <-ctx.Done():
	case httpErr = <-errc:
		log.Printf("http server: %v", httpErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if stopGRPC != nil {
		if err := stopGRPC(shutdownCtx); err != nil {
			log.Printf("grpc shutdown error: %v", err)
		}
	}
	if httpErr != nil {
		return fmt.Errorf("http server: %w", httpErr)
	}
	return nil
}
