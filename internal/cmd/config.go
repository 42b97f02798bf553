package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nightfall-games/mafia/internal/game"
)

// Config is the server configuration, loaded from YAML with environment
// overrides for the common knobs.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Game struct {
		MinPlayers   int `yaml:"min_players"`
		MaxPlayers   int `yaml:"max_players"`
		NightSeconds int `yaml:"night_seconds"`
		DaySeconds   int `yaml:"day_seconds"`
	} `yaml:"game"`
	NATS struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Game.MinPlayers = 5
	cfg.Game.MaxPlayers = 16
	cfg.Game.NightSeconds = 60
	cfg.Game.DaySeconds = 180
	cfg.NATS.URL = "nats://127.0.0.1:4222"
	cfg.NATS.SubjectPrefix = "mafia.events"
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the YAML config at path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Game.MinPlayers = getEnvAsInt("GAME_MIN_PLAYERS", cfg.Game.MinPlayers)
	cfg.Game.MaxPlayers = getEnvAsInt("GAME_MAX_PLAYERS", cfg.Game.MaxPlayers)
	cfg.Game.NightSeconds = getEnvAsInt("GAME_NIGHT_SECONDS", cfg.Game.NightSeconds)
	cfg.Game.DaySeconds = getEnvAsInt("GAME_DAY_SECONDS", cfg.Game.DaySeconds)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	return cfg, nil
}

// rules converts the config's game section into session rules.
func (c *Config) rules() game.Rules {
	return game.Rules{
		MinPlayers:    c.Game.MinPlayers,
		MaxPlayers:    c.Game.MaxPlayers,
		NightDuration: time.Duration(c.Game.NightSeconds) * time.Second,
		DayDuration:   time.Duration(c.Game.DaySeconds) * time.Second,
	}
}
