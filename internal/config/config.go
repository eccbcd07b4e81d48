package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/setforbots/internal/game"
)

// KeyLayouts are the default keyboard blocks, one per human player, read
// row by row. Slot i is bound to the i-th key.
var KeyLayouts = []string{
	"qwerasdfzxcv",
	"uiopjkl;m,./",
}

// Config represents the complete setforbots configuration
type Config struct {
	Game      *GameSettings      `hcl:"game,block"`
	Players   []PlayerSettings   `hcl:"player,block"`
	Spectator *SpectatorSettings `hcl:"spectator,block"`
	Log       *LogSettings       `hcl:"log,block"`
}

// GameSettings contains the rules and timings of a game. Durations are
// strings such as "60s" or "250ms".
type GameSettings struct {
	TableSize          int    `hcl:"table_size,optional"`
	FeatureCount       int    `hcl:"feature_count,optional"`
	TurnTimeout        string `hcl:"turn_timeout,optional"`
	TurnTimeoutWarning string `hcl:"turn_timeout_warning,optional"`
	EndGamePause       string `hcl:"end_game_pause,optional"`
	PointFreeze        string `hcl:"point_freeze,optional"`
	PenaltyFreeze      string `hcl:"penalty_freeze,optional"`
	Hints              bool   `hcl:"hints,optional"`
	QueueCapacity      int    `hcl:"queue_capacity,optional"`
	BotDelay           string `hcl:"bot_delay,optional"`
	Seed               int64  `hcl:"seed,optional"`
}

// PlayerSettings defines one participant
type PlayerSettings struct {
	Name  string `hcl:"name,label"`
	Human bool   `hcl:"human,optional"`
	Keys  string `hcl:"keys,optional"` // Overrides the default key layout
}

// SpectatorSettings enables the read-only websocket feed
type SpectatorSettings struct {
	Address string `hcl:"address,optional"`
}

// LogSettings controls the logger
type LogSettings struct {
	Level string `hcl:"level,optional"`
	File  string `hcl:"file,optional"`
}

// Default returns the configuration used when no file is present: one
// keyboard player against one automated player.
func Default() *Config {
	cfg := &Config{
		Game: &GameSettings{},
		Players: []PlayerSettings{
			{Name: "player1", Human: true},
			{Name: "bot1"},
		},
		Log: &LogSettings{},
	}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from an HCL file. A missing file yields Default.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file)
}

// Parse decodes configuration from HCL source.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(file)
}

func decode(file *hcl.File) (*Config, error) {
	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	if len(cfg.Players) == 0 {
		cfg.Players = Default().Players
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in values left out of the file.
func (c *Config) applyDefaults() {
	defaults := game.DefaultConfig()

	if c.Game == nil {
		c.Game = &GameSettings{}
	}
	g := c.Game
	if g.TableSize == 0 {
		g.TableSize = defaults.TableSize
	}
	if g.FeatureCount == 0 {
		g.FeatureCount = defaults.FeatureCount
	}
	if g.TurnTimeout == "" {
		g.TurnTimeout = defaults.TurnTimeout.String()
	}
	if g.TurnTimeoutWarning == "" {
		g.TurnTimeoutWarning = defaults.TurnTimeoutWarning.String()
	}
	if g.EndGamePause == "" {
		g.EndGamePause = defaults.EndGamePause.String()
	}
	if g.PointFreeze == "" {
		g.PointFreeze = defaults.PointFreeze.String()
	}
	if g.PenaltyFreeze == "" {
		g.PenaltyFreeze = defaults.PenaltyFreeze.String()
	}
	if g.QueueCapacity == 0 {
		g.QueueCapacity = defaults.QueueCapacity
	}
	if g.BotDelay == "" {
		g.BotDelay = defaults.BotDelay.String()
	}

	// Humans without explicit keys take the default blocks in order.
	next := 0
	for i := range c.Players {
		p := &c.Players[i]
		if !p.Human || p.Keys != "" {
			continue
		}
		if next < len(KeyLayouts) {
			p.Keys = KeyLayouts[next]
		}
		next++
	}

	if c.Spectator != nil && c.Spectator.Address == "" {
		c.Spectator.Address = "localhost:8081"
	}

	if c.Log == nil {
		c.Log = &LogSettings{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate validates the configuration, including the derived game config.
func (c *Config) Validate() error {
	gc, err := c.GameConfig()
	if err != nil {
		return err
	}
	var errs []error
	if err := gc.Validate(); err != nil {
		errs = append(errs, err)
	}

	names := make(map[string]bool, len(c.Players))
	used := make(map[rune]string)
	for _, p := range c.Players {
		if p.Name == "" {
			errs = append(errs, errors.New("player name must not be empty"))
		}
		if names[p.Name] {
			errs = append(errs, fmt.Errorf("player %s: duplicate name", p.Name))
		}
		names[p.Name] = true

		if !p.Human {
			continue
		}
		if p.Keys == "" {
			errs = append(errs, fmt.Errorf("player %s: no key layout left, set keys", p.Name))
			continue
		}
		for _, k := range p.Keys {
			if other, ok := used[k]; ok {
				errs = append(errs, fmt.Errorf("player %s: key %q already bound to %s", p.Name, k, other))
				break
			}
			used[k] = p.Name
		}
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// GameConfig converts the file settings into a game.Config.
func (c *Config) GameConfig() (game.Config, error) {
	g := c.Game
	gc := game.Config{
		TableSize:     g.TableSize,
		FeatureCount:  g.FeatureCount,
		Hints:         g.Hints,
		QueueCapacity: g.QueueCapacity,
		Seed:          g.Seed,
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"turn_timeout", g.TurnTimeout, &gc.TurnTimeout},
		{"turn_timeout_warning", g.TurnTimeoutWarning, &gc.TurnTimeoutWarning},
		{"end_game_pause", g.EndGamePause, &gc.EndGamePause},
		{"point_freeze", g.PointFreeze, &gc.PointFreeze},
		{"penalty_freeze", g.PenaltyFreeze, &gc.PenaltyFreeze},
		{"bot_delay", g.BotDelay, &gc.BotDelay},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return game.Config{}, fmt.Errorf("game.%s: %w", d.name, err)
		}
		*d.dst = v
	}

	for _, p := range c.Players {
		gc.Players = append(gc.Players, game.PlayerConfig{Name: p.Name, Human: p.Human})
	}
	return gc, nil
}

// Humans reports whether any player is driven from the keyboard.
func (c *Config) Humans() bool {
	for _, p := range c.Players {
		if p.Human {
			return true
		}
	}
	return false
}

// Summary renders the line-up for logs, e.g. "player1 (human), bot1".
func (c *Config) Summary() string {
	parts := make([]string, len(c.Players))
	for i, p := range c.Players {
		parts[i] = p.Name
		if p.Human {
			parts[i] += " (human)"
		}
	}
	return strings.Join(parts, ", ")
}
