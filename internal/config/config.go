package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"warehouse-route-service/internal/services"
)

// Config holds the runtime settings shared by the server and the CLI.
// Values come from the environment (after .env is loaded), an optional
// config file, and CLI flags bound by the caller.
type Config struct {
	Port         string        `mapstructure:"port"`
	DBPath       string        `mapstructure:"db_path"`
	DatabaseURL  string        `mapstructure:"database_url"`
	SeedPath     string        `mapstructure:"seed_path"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	TimeScale    float64       `mapstructure:"time_scale"`
	CartSpeed    float64       `mapstructure:"cart_speed"`
	CartCapacity int           `mapstructure:"cart_capacity"`
	LoadDuration time.Duration `mapstructure:"load_duration"`
	RedisURL     string        `mapstructure:"redis_url"`
	RedisChannel string        `mapstructure:"redis_channel"`
}

func setDefaults() {
	viper.SetDefault("port", "8080")
	viper.SetDefault("db_path", "data/app.db")
	viper.SetDefault("database_url", "")
	viper.SetDefault("seed_path", "data/seeds/warehouse.json")
	viper.SetDefault("tick_interval", services.DefaultTickInterval)
	viper.SetDefault("time_scale", 1.0)
	viper.SetDefault("cart_speed", services.DefaultCartSpeed)
	viper.SetDefault("cart_capacity", services.DefaultCartCapacity)
	viper.SetDefault("load_duration", services.DefaultLoadDuration)
	viper.SetDefault("redis_url", "")
	viper.SetDefault("redis_channel", "warehouse:cart-events")
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	setDefaults()
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval)
	case c.TimeScale <= 0:
		return fmt.Errorf("TIME_SCALE must be positive, got %v", c.TimeScale)
	case c.CartSpeed <= 0:
		return fmt.Errorf("CART_SPEED must be positive, got %v", c.CartSpeed)
	case c.CartCapacity <= 0:
		return fmt.Errorf("CART_CAPACITY must be positive, got %d", c.CartCapacity)
	case c.LoadDuration < 0:
		return fmt.Errorf("LOAD_DURATION must not be negative, got %s", c.LoadDuration)
	}
	return nil
}

// SimulationOptions maps the cart and clock settings onto simulation options.
func (c Config) SimulationOptions(start time.Time) services.Options {
	return services.Options{
		Capacity:     c.CartCapacity,
		Speed:        c.CartSpeed,
		LoadDuration: c.LoadDuration,
		Start:        start,
		TickInterval: c.TickInterval,
		TimeScale:    c.TimeScale,
	}
}

// Get returns a single setting by its environment name, or fallback when unset.
func Get(key, fallback string) string {
	viper.AutomaticEnv()
	if v := strings.TrimSpace(viper.GetString(key)); v != "" {
		return v
	}
	return fallback
}
