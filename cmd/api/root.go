package main

import (
	"fmt"

	"pmis/internal/config"
	"pmis/internal/database"
	"pmis/internal/logging"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:          "pmis",
	Short:        "Project management information system API",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file loaded before the environment (default .env)")
}

// loadConfig reads the configuration and initializes the global logger.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoader()
	if configFile != "" {
		loader.SetConfigFile(configFile)
	}
	if envFile != "" {
		loader.SetEnvFile(envFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	return cfg, nil
}

// openDatabase connects and brings the schema up to date.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	log := logging.Component("database")
	log.Info().Str("driver", cfg.Database.Driver).Msg("connected")
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
