// Package config loads the configuration of the consortium backend from a
// YAML file, an optional .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // Time zones for containers without zoneinfo

	"github.com/consorcio/backend/internal/engine"
	"github.com/consorcio/backend/internal/models"
	"github.com/consorcio/backend/internal/scheduler"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port             int    `yaml:"port"`
		APIURL           string `yaml:"api_url"`
		CORSAllowOrigins string `yaml:"cors_allow_origins"`
		EnablePprof      bool   `yaml:"enable_pprof"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Log struct {
		Format string `yaml:"format"` // json or human, empty selects by GIN_MODE
		Level  string `yaml:"level"`
	} `yaml:"log"`
	Schedule struct {
		SweepCron  string `yaml:"sweep_cron"`
		Timezone   string `yaml:"timezone"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Rules struct {
		QuotaStep        string `yaml:"quota_step"`
		QuotaMin         string `yaml:"quota_min"`
		QuotaMax         string `yaml:"quota_max"`
		DueDay           int    `yaml:"due_day"`
		Epsilon          string `yaml:"epsilon"`
		MaxGroupSize     int    `yaml:"max_group_size"`
		AllocationPolicy string `yaml:"allocation_policy"`
		RandomSeed       uint64 `yaml:"random_seed"` // 0 seeds from the clock
	} `yaml:"rules"`
	Locale string `yaml:"locale"`
}

// Load reads config from a YAML file and an optional .env file, then applies
// environment variable overrides and defaults.
//
// Missing files are not an error. Variables already set in the environment
// take precedence over the .env file.
func Load(path, envFile string) (*Config, error) {
	cfg := &Config{}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read env file: %w", err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() error {
	texts := []struct {
		env    string
		target *string
	}{
		{"API_URL", &c.Server.APIURL},
		{"CORS_ALLOW_ORIGINS", &c.Server.CORSAllowOrigins},
		{"DB_DRIVER", &c.Database.Driver},
		{"DB_DSN", &c.Database.DSN},
		{"LOG_FORMAT", &c.Log.Format},
		{"LOG_LEVEL", &c.Log.Level},
		{"SWEEP_CRON", &c.Schedule.SweepCron},
		{"TIMEZONE", &c.Schedule.Timezone},
		{"ALLOCATION_POLICY", &c.Rules.AllocationPolicy},
		{"LOCALE", &c.Locale},
	}

	for _, s := range texts {
		if v := os.Getenv(s.env); v != "" {
			*s.target = v
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT must be a number, is %q", v)
		}
		c.Server.Port = port
	}

	bools := []struct {
		env    string
		target *bool
	}{
		{"ENABLE_PPROF", &c.Server.EnablePprof},
		{"RUN_ON_START", &c.Schedule.RunOnStart},
	}

	for _, b := range bools {
		if v := os.Getenv(b.env); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s must be a boolean, is %q", b.env, v)
			}
			*b.target = parsed
		}
	}

	if v := os.Getenv("RANDOM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("RANDOM_SEED must be a positive number, is %q", v)
		}
		c.Rules.RandomSeed = seed
	}

	return nil
}

func (c *Config) applyDefaults() {
	rules := engine.DefaultRules()

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.APIURL == "" {
		c.Server.APIURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = string(models.DriverSQLite)
	}
	if c.Database.DSN == "" && c.Database.Driver == string(models.DriverSQLite) {
		c.Database.DSN = "data/consortium.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = zerolog.InfoLevel.String()
	}
	if c.Schedule.SweepCron == "" {
		c.Schedule.SweepCron = "0 6 * * *"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/Sao_Paulo"
	}
	if c.Rules.QuotaStep == "" {
		c.Rules.QuotaStep = rules.QuotaStep.String()
	}
	if c.Rules.QuotaMin == "" {
		c.Rules.QuotaMin = rules.QuotaMin.String()
	}
	if c.Rules.QuotaMax == "" {
		c.Rules.QuotaMax = rules.QuotaMax.String()
	}
	if c.Rules.DueDay == 0 {
		c.Rules.DueDay = rules.DueDay
	}
	if c.Rules.Epsilon == "" {
		c.Rules.Epsilon = rules.Epsilon.String()
	}
	if c.Rules.MaxGroupSize == 0 {
		c.Rules.MaxGroupSize = rules.MaxGroupSize
	}
	if c.Rules.AllocationPolicy == "" {
		c.Rules.AllocationPolicy = engine.WholeQuotaFirst{}.Version()
	}
	if c.Locale == "" {
		c.Locale = language.BrazilianPortuguese.String()
	}
}

// Validate checks that all fields are set and consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, is %d", c.Server.Port)
	}

	u, err := url.Parse(c.Server.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.api_url must be an absolute URL, is %q", c.Server.APIURL)
	}

	switch models.Driver(c.Database.Driver) {
	case models.DriverSQLite, models.DriverPostgres:
	default:
		return fmt.Errorf("database.driver must be one of sqlite, postgres, is %q", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	switch c.Log.Format {
	case "", "json", "human":
	default:
		return fmt.Errorf("log.format must be one of json, human, is %q", c.Log.Format)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if _, err := scheduler.Parser.Parse(c.Schedule.SweepCron); err != nil {
		return fmt.Errorf("schedule.sweep_cron: %w", err)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := c.Language(); err != nil {
		return err
	}

	rules, err := c.EngineRules()
	if err != nil {
		return err
	}

	if err := rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	if _, err := engine.StrategyForPolicy(c.Rules.AllocationPolicy); err != nil {
		return fmt.Errorf("rules.allocation_policy: %w", err)
	}

	return nil
}

// Location returns the time zone of the schedule.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}

	return loc, nil
}

// Language returns the locale amounts are formatted for.
func (c *Config) Language() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("locale: %w", err)
	}

	return tag, nil
}

// EngineRules returns the business rules of the engine.
func (c *Config) EngineRules() (engine.Rules, error) {
	rules := engine.DefaultRules()
	rules.DueDay = c.Rules.DueDay
	rules.MaxGroupSize = c.Rules.MaxGroupSize

	decimals := []struct {
		key    string
		value  string
		target *decimal.Decimal
	}{
		{"rules.quota_step", c.Rules.QuotaStep, &rules.QuotaStep},
		{"rules.quota_min", c.Rules.QuotaMin, &rules.QuotaMin},
		{"rules.quota_max", c.Rules.QuotaMax, &rules.QuotaMax},
		{"rules.epsilon", c.Rules.Epsilon, &rules.Epsilon},
	}

	for _, d := range decimals {
		parsed, err := decimal.NewFromString(d.value)
		if err != nil {
			return engine.Rules{}, fmt.Errorf("%s must be a decimal number, is %q", d.key, d.value)
		}
		*d.target = parsed
	}

	return rules, nil
}

// EngineOptions returns the options the engine is created with.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	rules, err := c.EngineRules()
	if err != nil {
		return nil, err
	}

	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	tag, err := c.Language()
	if err != nil {
		return nil, err
	}

	strategy, err := engine.StrategyForPolicy(c.Rules.AllocationPolicy)
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithRules(rules),
		engine.WithLocation(loc),
		engine.WithLocale(tag),
		engine.WithStrategy(strategy),
	}

	if c.Rules.RandomSeed != 0 {
		opts = append(opts, engine.WithShuffler(engine.NewRandomShuffler(c.Rules.RandomSeed)))
	}

	return opts, nil
}

// Export sets the environment variables the router reads.
func (c *Config) Export() error {
	vars := map[string]string{
		"API_URL":            c.Server.APIURL,
		"CORS_ALLOW_ORIGINS": c.Server.CORSAllowOrigins,
		"ENABLE_PPROF":       strconv.FormatBool(c.Server.EnablePprof),
	}

	for key, value := range vars {
		if value == "" {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}

	return nil
}
