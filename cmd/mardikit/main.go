package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	ipfsadapter "github.com/mardi4nfdi/mardikit/internal/adapter/driven/ipfs"
	lakefsadapter "github.com/mardi4nfdi/mardikit/internal/adapter/driven/lakefs"
	"github.com/mardi4nfdi/mardikit/internal/adapter/driven/mediawiki"
	sqliteadapter "github.com/mardi4nfdi/mardikit/internal/adapter/driven/sqlite"
	httphandler "github.com/mardi4nfdi/mardikit/internal/adapter/driving/http"
	"github.com/mardi4nfdi/mardikit/internal/application"
	"github.com/mardi4nfdi/mardikit/internal/config"
	"github.com/mardi4nfdi/mardikit/internal/domain/port/driven"
	"github.com/mardi4nfdi/mardikit/internal/secrets"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"kg_api_url", cfg.KGAPIURL,
		"cache_ttl", cfg.CacheTTL,
		"lakefs", cfg.HasLakeFS(),
		"ipfs", cfg.HasIPFS(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Load credentials. The secrets file is only required when a
	// credentialed backend is configured.
	var creds secrets.Credentials
	if cfg.HasLakeFS() || cfg.HasIPFS() {
		creds, err = secrets.Load(cfg.SecretsPath)
		if err != nil {
			return err
		}
		slog.Info("credentials loaded", "path", cfg.SecretsPath)
	}

	// 6. Wire driven adapters.
	matchStore := sqliteadapter.NewMatchRepo(db)
	kgClient := mediawiki.NewClient(cfg.KGAPIURL, cfg.RetryAttempts)

	var lakeClient *lakefsadapter.Client
	if cfg.HasLakeFS() {
		pair, err := creds.Lookup("lakefs")
		if err != nil {
			return err
		}
		lakeClient, err = lakefsadapter.NewClient(cfg.LakeFSEndpoint, cfg.LakeFSRepository, cfg.LakeFSBranch, pair.User, pair.Password)
		if err != nil {
			return err
		}
		slog.Info("lakefs client created", "endpoint", cfg.LakeFSEndpoint, "repository", cfg.LakeFSRepository, "branch", cfg.LakeFSBranch)
	} else {
		slog.Info("no lakefs endpoint configured, archive endpoints disabled")
	}

	var ipfsClient *ipfsadapter.Client
	if cfg.HasIPFS() {
		pair, err := creds.Lookup("ipfs")
		if err != nil {
			return err
		}
		ipfsClient = ipfsadapter.NewClient(cfg.IPFSAPIURL, cfg.IPFSGatewayURL, pair.User, pair.Password)
		slog.Info("ipfs client created", "api_url", cfg.IPFSAPIURL, "gateway_url", cfg.IPFSGatewayURL)
	} else {
		slog.Info("no ipfs api configured, publish endpoints disabled")
	}

	// 7. Create application services. The port values stay untyped nil when
	// a backend is not configured so nil checks downstream behave.
	lookupSvc := application.NewLookupService(kgClient, matchStore, cfg.CacheTTL)
	go lookupSvc.PruneLoop(ctx, time.Hour)

	var archiveSvc *application.ArchiveService
	var archiveStore driven.ObjectStore
	if lakeClient != nil {
		archiveStore = lakeClient
		archiveSvc = application.NewArchiveService(lakeClient)
	}

	var publishSvc *application.PublishService
	var ipfsNode driven.IPFSNode
	if ipfsClient != nil {
		ipfsNode = ipfsClient
		publishSvc = application.NewPublishService(ipfsClient)
	}

	healthSvc := application.NewHealthService(db.Reader, archiveStore, ipfsNode)

	// 8. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(lookupSvc, archiveSvc, publishSvc, healthSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("mardikit started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout to drain the HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
