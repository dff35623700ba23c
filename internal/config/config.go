package config

import (
	"fmt"

	"duel-lite/battle"
	"duel-lite/catalog"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration read from DUEL_* environment variables.
type Config struct {
	LogLevel  string `env:"DUEL_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"DUEL_LOG_FORMAT" envDefault:"console"`

	Catalog CatalogConfig `envPrefix:"DUEL_CATALOG_"`
	Battle  BattleConfig  `envPrefix:"DUEL_BATTLE_"`
}

type CatalogConfig struct {
	Mode       string   `env:"MODE"        envDefault:"memory"`
	Files      []string `env:"FILES"       envSeparator:","`
	SQLitePath string   `env:"SQLITE_PATH" envDefault:"data/duel.db"`
	DSN        string   `env:"DSN"`
	Seed       bool     `env:"SEED"        envDefault:"true"`
	CacheSize  int      `env:"CACHE_SIZE"  envDefault:"256"`
}

// BattleConfig mirrors battle.Config; the defaults match battle.DefaultConfig.
type BattleConfig struct {
	MaxTurns           int     `env:"MAX_TURNS"            envDefault:"30"`
	StalemateMinTurn   int     `env:"STALEMATE_MIN_TURN"   envDefault:"10"`
	StalemateStreak    int     `env:"STALEMATE_STREAK"     envDefault:"3"`
	StalemateHealthGap float64 `env:"STALEMATE_HEALTH_GAP" envDefault:"10"`
	DecisiveGap        float64 `env:"DECISIVE_GAP"         envDefault:"60"`
	DesperationFloor   float64 `env:"DESPERATION_FLOOR"    envDefault:"15"`
	EnergyStarved      float64 `env:"ENERGY_STARVED"       envDefault:"5"`
	RecoveryEnergy     float64 `env:"RECOVERY_ENERGY"      envDefault:"12"`
	StunnedRecovery    float64 `env:"STUNNED_RECOVERY"     envDefault:"5"`
	MiracleSurvival    float64 `env:"MIRACLE_SURVIVAL"     envDefault:"0.05"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from vars instead of the process
// environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the catalog settings and the battle tuning.
func (c Config) Validate() error {
	switch catalog.NormalizeMode(c.Catalog.Mode) {
	case catalog.ModeMemory:
	case catalog.ModeSQLite:
		if c.Catalog.SQLitePath == "" {
			return fmt.Errorf("DUEL_CATALOG_SQLITE_PATH is required for sqlite mode")
		}
	case catalog.ModePostgres:
		if c.Catalog.DSN == "" {
			return fmt.Errorf("DUEL_CATALOG_DSN is required for postgres mode")
		}
	default:
		return fmt.Errorf("invalid DUEL_CATALOG_MODE %q", c.Catalog.Mode)
	}
	if c.Catalog.CacheSize < 0 {
		return fmt.Errorf("DUEL_CATALOG_CACHE_SIZE must be >= 0")
	}
	if err := c.BattleConfig().Validate(); err != nil {
		return fmt.Errorf("battle config: %w", err)
	}
	return nil
}

// BattleConfig converts the env values into the engine's Config.
func (c Config) BattleConfig() battle.Config {
	b := c.Battle
	return battle.Config{
		MaxTurns:           b.MaxTurns,
		StalemateMinTurn:   b.StalemateMinTurn,
		StalemateStreak:    b.StalemateStreak,
		StalemateHealthGap: b.StalemateHealthGap,
		DecisiveGap:        b.DecisiveGap,
		DesperationFloor:   b.DesperationFloor,
		EnergyStarved:      b.EnergyStarved,
		RecoveryEnergy:     b.RecoveryEnergy,
		StunnedRecovery:    b.StunnedRecovery,
		MiracleSurvival:    b.MiracleSurvival,
	}
}

// CatalogOptions converts the env values into catalog.Open options.
func (c Config) CatalogOptions() catalog.Options {
	return catalog.Options{
		Mode:       c.Catalog.Mode,
		Files:      c.Catalog.Files,
		SQLitePath: c.Catalog.SQLitePath,
		DSN:        c.Catalog.DSN,
		Seed:       c.Catalog.Seed,
		CacheSize:  c.Catalog.CacheSize,
	}
}
