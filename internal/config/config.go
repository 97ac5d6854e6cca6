package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for a burrow with no burrow.yml.
const (
	DefaultGoblins          = 5
	DefaultChannelCapacity  = 100
	DefaultFatigueThreshold = 30.0
	DefaultDiscoveryChance  = 0.3
	DefaultOreMin           = 1
	DefaultOreMax           = 5
	DefaultFatigueMin       = 1.0
	DefaultFatigueMax       = 5.0
	DefaultDelayMinMs       = 100
	DefaultDelayMaxMs       = 500
	DefaultInstance         = "default"
)

// BurrowConfig represents the top-level burrow.yml configuration
type BurrowConfig struct {
	Version    string            `yaml:"version"`
	Simulation *SimulationConfig `yaml:"simulation,omitempty"`
	Goblin     *GoblinConfig     `yaml:"goblin,omitempty"`
	Blackboard *BlackboardConfig `yaml:"blackboard,omitempty"`
	Observer   *ObserverConfig   `yaml:"observer,omitempty"`
}

// SimulationConfig sizes the simulation
type SimulationConfig struct {
	Goblins         int   `yaml:"goblins"`
	ChannelCapacity int   `yaml:"channel_capacity"`
	SeedOffset      int64 `yaml:"seed_offset"` // Added to each goblin id to seed its generator
}

// GoblinConfig tunes a goblin's tick. Ore bounds are inclusive, fatigue and delay
// upper bounds are exclusive.
type GoblinConfig struct {
	FatigueThreshold   *float64 `yaml:"fatigue_threshold,omitempty"`
	DiscoveryChance    *float64 `yaml:"discovery_chance,omitempty"`
	OreMin             int      `yaml:"ore_min,omitempty"`
	OreMax             int      `yaml:"ore_max,omitempty"`
	FatigueMin         float64  `yaml:"fatigue_min,omitempty"`
	FatigueMax         float64  `yaml:"fatigue_max,omitempty"`
	DelayMinMs         int      `yaml:"delay_min_ms,omitempty"`
	DelayMaxMs         int      `yaml:"delay_max_ms,omitempty"`
	StopWhenUnobserved bool     `yaml:"stop_when_unobserved,omitempty"` // Exit instead of looping once the fortress is gone
}

// BlackboardConfig points the fortress at an optional Redis ledger
type BlackboardConfig struct {
	RedisURL string `yaml:"redis_url,omitempty"` // Empty disables the ledger
	Instance string `yaml:"instance,omitempty"`
}

// ObserverConfig enables the health and websocket endpoints
type ObserverConfig struct {
	Addr string `yaml:"addr,omitempty"` // Empty disables the server
}

// Default returns a fully populated configuration with the standard constants.
func Default() *BurrowConfig {
	cfg := &BurrowConfig{Version: "1.0"}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills every section and zero field that has a default.
func (c *BurrowConfig) applyDefaults() {
	if c.Simulation == nil {
		c.Simulation = &SimulationConfig{}
	}
	if c.Simulation.Goblins == 0 {
		c.Simulation.Goblins = DefaultGoblins
	}
	if c.Simulation.ChannelCapacity == 0 {
		c.Simulation.ChannelCapacity = DefaultChannelCapacity
	}

	if c.Goblin == nil {
		c.Goblin = &GoblinConfig{}
	}
	g := c.Goblin
	if g.FatigueThreshold == nil {
		threshold := DefaultFatigueThreshold
		g.FatigueThreshold = &threshold
	}
	if g.DiscoveryChance == nil {
		chance := DefaultDiscoveryChance
		g.DiscoveryChance = &chance
	}
	if g.OreMin == 0 && g.OreMax == 0 {
		g.OreMin, g.OreMax = DefaultOreMin, DefaultOreMax
	}
	if g.FatigueMin == 0 && g.FatigueMax == 0 {
		g.FatigueMin, g.FatigueMax = DefaultFatigueMin, DefaultFatigueMax
	}
	if g.DelayMinMs == 0 && g.DelayMaxMs == 0 {
		g.DelayMinMs, g.DelayMaxMs = DefaultDelayMinMs, DefaultDelayMaxMs
	}

	if c.Blackboard == nil {
		c.Blackboard = &BlackboardConfig{}
	}
	if c.Blackboard.Instance == "" {
		c.Blackboard.Instance = DefaultInstance
	}

	if c.Observer == nil {
		c.Observer = &ObserverConfig{}
	}
}

// Validate applies defaults and then performs strict validation on the configuration
func (c *BurrowConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	c.applyDefaults()

	if c.Simulation.Goblins < 1 {
		return fmt.Errorf("simulation.goblins must be >= 1, got %d", c.Simulation.Goblins)
	}
	if c.Simulation.ChannelCapacity < 1 {
		return fmt.Errorf("simulation.channel_capacity must be >= 1, got %d", c.Simulation.ChannelCapacity)
	}

	return c.Goblin.Validate()
}

// Validate checks the goblin tuning ranges
func (g *GoblinConfig) Validate() error {
	threshold := *g.FatigueThreshold
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return fmt.Errorf("goblin.fatigue_threshold must be a finite value >= 0, got %v", threshold)
	}

	chance := *g.DiscoveryChance
	if math.IsNaN(chance) || chance < 0 || chance > 1 {
		return fmt.Errorf("goblin.discovery_chance must be within [0, 1], got %v", chance)
	}

	if g.OreMin < 0 || g.OreMax < g.OreMin {
		return fmt.Errorf("goblin ore range [%d, %d] is invalid (need 0 <= ore_min <= ore_max)", g.OreMin, g.OreMax)
	}

	if g.FatigueMin < 0 || g.FatigueMax <= g.FatigueMin {
		return fmt.Errorf("goblin fatigue range [%v, %v) is invalid (need 0 <= fatigue_min < fatigue_max)", g.FatigueMin, g.FatigueMax)
	}

	if g.DelayMinMs < 0 || g.DelayMaxMs <= g.DelayMinMs {
		return fmt.Errorf("goblin delay range [%d, %d) ms is invalid (need 0 <= delay_min_ms < delay_max_ms)", g.DelayMinMs, g.DelayMaxMs)
	}

	return nil
}

// DelayRange returns the inter-tick delay bounds as durations.
func (g *GoblinConfig) DelayRange() (time.Duration, time.Duration) {
	return time.Duration(g.DelayMinMs) * time.Millisecond, time.Duration(g.DelayMaxMs) * time.Millisecond
}

// Load reads and validates burrow.yml from the specified path
func Load(path string) (*BurrowConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config BurrowConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
