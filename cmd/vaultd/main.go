package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/basketvault/internal/config"
	"github.com/elys-network/basketvault/internal/logger"
	"github.com/elys-network/basketvault/internal/node"
	"github.com/elys-network/basketvault/internal/state"
	"github.com/elys-network/basketvault/internal/vault"
	"github.com/elys-network/basketvault/internal/web"
)

// main is the entry point for the vault daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(config.LogLevel, config.LogFormat)
	log.Info().Msg("Vault daemon starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("backend", config.StoreBackend).Msg("Failed to open store")
	}
	defer store.Close()

	// --- 2. Vault Initialization ---
	def, err := config.LoadVaultDefinition(config.VaultDefinitionPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", config.VaultDefinitionPath).Msg("Failed to load vault definition")
	}

	n, err := node.Bootstrap(ctx, def, store, vault.SystemClock{}, config.SnapshotSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap vault node")
	}
	log.Info().
		Str("vault", def.Address).
		Strs("tokens", def.Tokens).
		Msg("Vault node ready")

	// --- 3. Start Web Server ---
	webServer := web.NewWebServer(config.WebPort, n)
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting vault API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed")
			stop()
		}
	}()

	// --- 4. Run until interrupted ---
	if err := n.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Node stopped with error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Web server shutdown failed")
	}
	log.Info().Msg("Vault daemon stopped")
}

// openStore builds the configured event and snapshot store.
func openStore(ctx context.Context) (state.Store, error) {
	if config.StoreBackend != config.StoreBackendPostgres {
		log.Warn().Msg("Using in-memory store. State is lost on restart.")
		return state.NewMemoryStore(), nil
	}

	dbCfg := state.DBConfig{
		Host:     config.DBHost,
		Port:     config.DBPort,
		User:     config.DBUser,
		Password: config.DBPassword,
		DBName:   config.DBName,
		SSLMode:  config.DBSSLMode,
	}
	store, err := state.OpenPostgres(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
