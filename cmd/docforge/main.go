// cmd/docforge/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docforgehq/docforge/internal/api"
	"github.com/docforgehq/docforge/internal/auth"
	"github.com/docforgehq/docforge/internal/config"
	"github.com/docforgehq/docforge/internal/docgen"
	"github.com/docforgehq/docforge/internal/ghimport"
	"github.com/docforgehq/docforge/internal/inference"
	"github.com/docforgehq/docforge/internal/pyparse"
	"github.com/docforgehq/docforge/internal/store"
)

var (
	version = config.Version
	commit  = "none"
	date    = "unknown"
)

func versionString() string {
	return fmt.Sprintf("docforge %s (commit: %s, built: %s)", version, commit, date)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "docforge",
		Short: "AI-assisted Python documentation backend",
		Long:  "docforge — a backend that parses uploaded Python projects and generates docstring documentation through a hosted inference endpoint.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(versionString())
		},
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.SetupLogger(cfg)

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	db, err := store.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Warn("mongodb disconnect failed", "error", err)
		}
	}()
	logger.Info("connected to mongodb", "database", cfg.MongoDB)

	client := inference.New(cfg.InferenceEndpoint, cfg.InferenceToken)
	planner := docgen.NewPlanner(db, db, db)
	persister := docgen.NewPersister(db, db, logger)
	orchestrator := docgen.NewOrchestrator(planner, client, persister, docgen.Config{
		BatchSize:     cfg.BatchSize,
		Concurrency:   cfg.Concurrency,
		FallbackDelay: cfg.FallbackDelay,
	}, logger)
	applier := docgen.NewApplier(db, db, db, db, logger)

	handlers := api.NewHandlers(api.HandlerConfig{
		Projects:  db,
		Files:     db,
		Prefs:     db,
		Revisions: db,
		Users:     db,
		Planner:   planner,
		Generator: orchestrator,
		Applier:   applier,
		Parser:    pyparse.NewParser(),
		Tokens:    auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Secrets:   auth.NewSecretBox(cfg.GithubTokenSecret),
		Download: func(ctx context.Context, token string) api.RepoDownloader {
			return ghimport.New(ctx, token)
		},
		OAuth:  ghimport.NewOAuth(cfg.GithubOAuthID, cfg.GithubOAuthSecret),
		Logger: logger,
	})

	return api.NewServer(cfg, logger, handlers).Run()
}
