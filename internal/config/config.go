// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/benbeisheim/variantchess-backend/internal/model"
	"github.com/gofiber/fiber/v2/log"
)

type Config struct {
	Addr           string
	AllowedOrigins string
	EnginePath     string
	EngineElo      int
	EngineMoveTime time.Duration
	ClockInitial   time.Duration
	ClockIncrement time.Duration
	BoardSize      int
	LogLevel       string
}

func Default() Config {
	return Config{
		Addr:           ":3000",
		AllowedOrigins: "http://localhost:5173",
		EngineElo:      1350,
		EngineMoveTime: 500 * time.Millisecond,
		ClockInitial:   10 * time.Minute,
		BoardSize:      8,
		LogLevel:       "info",
	}
}

// Load starts from Default and applies any CHESS_* variables that are set.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if v, ok := lookup("CHESS_ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := lookup("CHESS_ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = v
	}
	if v, ok := lookup("CHESS_ENGINE_PATH"); ok {
		cfg.EnginePath = v
	}
	if v, ok := lookup("CHESS_LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"CHESS_ENGINE_ELO", &cfg.EngineElo},
		{"CHESS_BOARD_SIZE", &cfg.BoardSize},
	}
	for _, i := range ints {
		v, ok := lookup(i.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", i.name, err)
		}
		*i.dst = n
	}
	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"CHESS_ENGINE_MOVETIME", &cfg.EngineMoveTime},
		{"CHESS_CLOCK_INITIAL", &cfg.ClockInitial},
		{"CHESS_CLOCK_INCREMENT", &cfg.ClockIncrement},
	}
	for _, d := range durations {
		v, ok := lookup(d.name)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	if !slices.Contains(model.SupportedSizes, cfg.BoardSize) {
		return Config{}, fmt.Errorf("CHESS_BOARD_SIZE: %w: %d", model.ErrUnsupportedSize, cfg.BoardSize)
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return Config{}, fmt.Errorf("CHESS_LOG_LEVEL: unknown level %q", cfg.LogLevel)
	}
	return cfg, nil
}

var logLevels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func (c Config) FiberLogLevel() log.Level {
	return logLevels[c.LogLevel]
}

func (c Config) TimeControl() model.TimeControl {
	return model.TimeControl{Initial: c.ClockInitial, Increment: c.ClockIncrement}
}
