package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/consorcio/backend/internal/config"
	"github.com/consorcio/backend/internal/engine"
	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// loadConfig loads and validates the configuration and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogging(cfg)
	return cfg, nil
}

// setupLogging configures gin and the global zerolog logger.
func setupLogging(cfg *config.Config) {
	// gin uses debug as the default mode, we use release for
	// security reasons
	ginMode, ok := os.LookupEnv("GIN_MODE")
	if !ok {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(ginMode)
	}

	// If the format is not set, it defaults to human readable for
	// development and JSON for release
	output := io.Writer(os.Stdout)
	if (cfg.Log.Format == "" && gin.IsDebugging()) || cfg.Log.Format == "human" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	// The level is validated with the configuration
	level, _ := zerolog.ParseLevel(cfg.Log.Level)
	if gin.IsDebugging() && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(output).With().Timestamp().Logger()
}

// openEngine connects to the database and creates the engine.
func openEngine(cfg *config.Config) (*engine.Engine, error) {
	driver := models.Driver(cfg.Database.Driver)

	if driver == models.DriverSQLite {
		path, _, _ := strings.Cut(cfg.Database.DSN, "?")
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	if err := models.ConnectDriver(driver, cfg.Database.DSN); err != nil {
		return nil, err
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}

	return engine.New(store.New(models.DB), opts...)
}

// closeDatabase closes the database connection.
func closeDatabase() {
	sqlDB, err := models.DB.DB()
	if err != nil {
		log.Error().Err(err).Msg("could not get database connection")
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("could not close database connection")
	}
}
