// Package cmd provides the CLI commands for the MealsFit client.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mealsfit/mealsfit-cli/internal/adapter/outbound/api"
	"github.com/mealsfit/mealsfit-cli/internal/adapter/outbound/cache"
	"github.com/mealsfit/mealsfit-cli/internal/adapter/outbound/keystore"
	"github.com/mealsfit/mealsfit-cli/internal/config"
	"github.com/mealsfit/mealsfit-cli/internal/domain/session"
	"github.com/mealsfit/mealsfit-cli/internal/service"
	"github.com/mealsfit/mealsfit-cli/internal/telemetry"
)

var cfgFile string
var stateDirFlag string

var rootCmd = &cobra.Command{
	Use:   "mealsfit",
	Short: "MealsFit - recipe tracking client",
	Long: `MealsFit is a client for the MealsFit recipe-tracking API.

It keeps your session in an app-private credentials file, so you stay
signed in between invocations, and caches your recipe list locally so
listings keep working while you are offline.

Quick start:
  1. Write a starter config: mealsfit init
  2. Sign in:               mealsfit login --email you@example.com --password ...
  3. List your recipes:     mealsfit recipes list

Configuration:
  Config is loaded from mealsfit.yaml in the current directory or
  $HOME/.mealsfit/. Environment variables can override config values
  with the MEALSFIT_ prefix. Example: MEALSFIT_API_BASE_URL=http://10.0.2.2:8000`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./mealsfit.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateDirFlag, "state-dir", "", "state directory (default: ~/.mealsfit)")
}

func initConfig() {
	config.InitViper(cfgFile)
}

// app wires the client components for one CLI invocation.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	sessions    *session.Context
	auth        *service.AuthService
	recipes     *service.RecipeService
	ingredients *service.IngredientService

	cacheStore *cache.Store
	shutdown   func(context.Context) error
}

// newApp loads config, hydrates the session, and builds the Gateway and
// services. Callers must defer a.close().
func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if stateDirFlag != "" {
		cfg.StateDir = stateDirFlag
	}

	stateDir, err := cfg.ResolveStateDir()
	if err != nil {
		return nil, fmt.Errorf("resolve state dir: %w", err)
	}

	level := slog.LevelInfo
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	shutdown, err := telemetry.Init(cfg.DevMode)
	if err != nil {
		return nil, err
	}

	store := keystore.NewFileStore(config.CredentialsPath(stateDir), logger)
	sessions := session.NewContext(store, logger)
	sessions.Subscribe(func(s session.Session) {
		logger.Debug("session changed", "authenticated", s.IsAuthenticated())
	})
	sessions.Hydrate()

	// A broken cache must not take the client down; it only costs offline
	// listings.
	cacheStore, err := cache.Open(config.CachePath(stateDir), logger)
	if err != nil {
		logger.Warn("opening offline cache failed, continuing without it", "error", err)
		cacheStore = nil
	}

	opts := []api.Option{
		api.WithBaseURL(cfg.API.BaseURL),
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithLogger(logger),
	}
	if cfg.DevMode {
		opts = append(opts, api.WithTracer(telemetry.Tracer()))
	}
	gw := api.NewClient(sessions, opts...)

	a := &app{
		cfg:        cfg,
		logger:     logger,
		sessions:   sessions,
		auth:       service.NewAuthService(gw, sessions, logger),
		cacheStore: cacheStore,
		shutdown:   shutdown,
	}
	var recipeCache service.RecipeCache
	var ingredientCache service.IngredientCache
	if cacheStore != nil {
		recipeCache = cacheStore
		ingredientCache = cacheStore
	}
	a.recipes = service.NewRecipeService(gw, recipeCache, logger)
	a.ingredients = service.NewIngredientService(gw, ingredientCache, logger)
	return a, nil
}

// close releases the cache database and flushes telemetry.
func (a *app) close() {
	if a.cacheStore != nil {
		_ = a.cacheStore.Close()
	}
	if a.shutdown != nil {
		_ = a.shutdown(context.Background())
	}
}

// currentUser returns the authenticated user or an error telling the caller
// to sign in first.
func (a *app) currentUser() (session.User, error) {
	u, ok := a.sessions.Current().User()
	if !ok {
		return session.User{}, fmt.Errorf("not signed in, run \"mealsfit login\" first")
	}
	return u, nil
}
