package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"directoryhub/backend/internal/api"
	"directoryhub/backend/internal/auth"
	"directoryhub/backend/internal/config"
	"directoryhub/backend/internal/logging"
	"directoryhub/backend/internal/mcp"
	"directoryhub/backend/internal/repository"
	"directoryhub/backend/internal/services"
	"directoryhub/backend/internal/tls"
)

const serviceName = "directoryhub"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type cli struct {
	configPath string
}

func main() {
	c := &cli{}

	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "Directory Hub API and MCP server",
		SilenceUsage: true,
		RunE:         c.run,
	}
	cmd.Flags().StringVar(&c.configPath, "config", "", "Path to config file (default ./config.yaml)")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return fmt.Errorf("configuration loading failed: %w", err)
	}

	logger := logging.NewLogger(cfg.IsDev(), cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Configuration loaded",
		"environment", cfg.Environment,
		"storage", cfg.Storage.Driver,
		"okta_domain", cfg.Auth.OktaDomain,
		"okta_client_id", cfg.Auth.ClientID,
		"swagger_client_id", cfg.Auth.SwaggerClientID,
	)
	if cfg.Auth.SwaggerClientID != "" && cfg.Auth.SwaggerClientID == cfg.Auth.ClientID {
		logger.Warn("Swagger client ID matches the backend client ID; PKCE login from /docs will fail if the backend is a web app")
	}

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	var model services.TextModel
	if cfg.LLM.APIKey != "" {
		m, err := services.NewGenAIModel(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			return err
		}
		model = m
		logger.Info("Language model configured", "model", cfg.LLM.Model)
	} else {
		logger.Warn("llm.api_key not set, schema generation and autofill run in mock mode")
	}

	generator := services.NewLLMSchemaGenerator(model, logger.With("component", "schema_generator"))
	directories := services.NewDirectoryService(repo, logger)
	listings := services.NewListingService(repo, repo, logger)
	autofiller := services.NewListingAutofiller(model, logger)

	authz, err := auth.New(ctx, cfg, repo, logger)
	if err != nil {
		return fmt.Errorf("auth initialization failed: %w", err)
	}

	handler := api.NewHandler(api.Deps{
		Store:       repo,
		Directories: directories,
		Listings:    listings,
		Generator:   generator,
		Autofiller:  autofiller,
		Logger:      logger,
		Version:     version,
	})
	e := api.NewRouter(handler, api.Middleware{
		Authenticate: echo.WrapMiddleware(authz.RequireAuth),
		RequireAdmin: echo.WrapMiddleware(authz.RequireAdmin),
	}, serviceName)

	e.GET("/login", echo.WrapHandler(http.HandlerFunc(authz.LoginHandler)))
	e.GET("/auth/callback", echo.WrapHandler(http.HandlerFunc(authz.CallbackHandler)))
	e.GET("/logout", echo.WrapHandler(http.HandlerFunc(authz.LogoutHandler)))

	api.RegisterDocs(e, api.DocsConfig{
		OktaIssuer: cfg.Auth.OktaDomain,
		ClientID:   cfg.Auth.SwaggerClientID,
		Scopes:     auth.AllScopes,
	})

	mcpServer := mcp.NewServer(generator, directories, listings, version)
	e.Any("/mcp/*", echo.WrapHandler(mcp.Handler(mcpServer.GetMCPServer(), authz.RequireAuth)))

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	if cfg.TLS.Enable {
		addr = ":" + strconv.Itoa(cfg.Server.TLSPort)
		created, err := tls.EnsureSelfSignedCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames)
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		if created {
			logger.Info("Generated self-signed certificate", "cert_file", cfg.TLS.CertFile, "hosts", cfg.TLS.Hostnames)
		}
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// no write timeout: MCP SSE streams and model calls outlive it
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "address", addr, "tls", cfg.TLS.Enable, "version", version)
		var err error
		if cfg.TLS.Enable {
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			return server.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// openRepository selects the storage driver. The returned func releases it.
func openRepository(ctx context.Context, cfg *config.Config, logger *logging.Logger) (repository.Repository, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	case "postgres", "":
		pool, err := repository.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("database initialization failed: %w", err)
		}
		repo := repository.NewPostgresRepository(pool, logger)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("Database connected", "host", cfg.DB.Host, "name", cfg.DB.Name)
		return repo, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
