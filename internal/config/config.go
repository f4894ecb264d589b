package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"irrigation_control/internal/models"
)

// Defaults applied when the config file leaves a knob unset.
const (
	DefaultPort                 = "8080"
	DefaultCheckInterval        = 10 * time.Second
	DefaultHumiditySkipPct      = 95.0
	DefaultMaxConsecutiveErrors = 3
	DefaultRetryCooldown        = 5 * time.Minute
	DefaultSensorTimeout        = 10 * time.Second
	DefaultSensorCacheDuration  = 5 * time.Minute
	DefaultShellyTimeout        = 5 * time.Second
)

// Config is the typed view of configs/config.yml.
type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// SimulateHardware selects mock devices process-wide, decided once at startup.
	SimulateHardware bool `mapstructure:"simulate_hardware"`

	Auth      Auth      `mapstructure:"auth"`
	Storage   Storage   `mapstructure:"storage"`
	Scheduler Scheduler `mapstructure:"scheduler"`
	Hardware  Hardware  `mapstructure:"hardware"`
	Sensor    Sensor    `mapstructure:"sensor"`

	Zones []models.Zone `mapstructure:"zones"`
}

type Auth struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type Storage struct {
	SchedulesFile string `mapstructure:"schedules_file"`
	SkipLogFile   string `mapstructure:"skip_log_file"`
	ErrorLogFile  string `mapstructure:"error_log_file"`
	UsersFile     string `mapstructure:"users_file"`
}

type Scheduler struct {
	CheckInterval       time.Duration `mapstructure:"check_interval"`
	HumiditySkipPercent float64       `mapstructure:"humidity_skip_percent"`
}

type Hardware struct {
	MaxConsecutiveErrors int           `mapstructure:"max_consecutive_errors"`
	RetryCooldown        time.Duration `mapstructure:"retry_cooldown"`
}

type Sensor struct {
	Address       string        `mapstructure:"address"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CacheDuration time.Duration `mapstructure:"cache_duration"`
}

// Load reads configs/config.yml, applies defaults and drops invalid zone
// records. A malformed zone is logged by the caller via the returned
// rejection list; it never propagates into scheduling logic.
func Load() (*Config, []string, error) {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	rejected := cfg.pruneInvalidZones()

	if cfg.Auth.SigningKey == "" {
		return nil, nil, fmt.Errorf("auth.signing_key is required")
	}
	return &cfg, rejected, nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.Scheduler.CheckInterval <= 0 {
		c.Scheduler.CheckInterval = DefaultCheckInterval
	}
	if c.Scheduler.HumiditySkipPercent <= 0 {
		c.Scheduler.HumiditySkipPercent = DefaultHumiditySkipPct
	}
	if c.Hardware.MaxConsecutiveErrors <= 0 {
		c.Hardware.MaxConsecutiveErrors = DefaultMaxConsecutiveErrors
	}
	if c.Hardware.RetryCooldown <= 0 {
		c.Hardware.RetryCooldown = DefaultRetryCooldown
	}
	if c.Sensor.Timeout <= 0 {
		c.Sensor.Timeout = DefaultSensorTimeout
	}
	if c.Sensor.CacheDuration <= 0 {
		c.Sensor.CacheDuration = DefaultSensorCacheDuration
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = time.Hour
	}
	for i := range c.Zones {
		z := &c.Zones[i]
		if z.Kind == models.KindShelly && z.TimeoutSec <= 0 {
			z.TimeoutSec = DefaultShellyTimeout.Seconds()
		}
	}
}

// pruneInvalidZones drops zone records that cannot drive a device and
// returns one reason string per rejected record (fail closed, keep going).
func (c *Config) pruneInvalidZones() []string {
	var (
		kept     []models.Zone
		rejected []string
		seen     = map[string]bool{}
	)
	for _, z := range c.Zones {
		switch {
		case z.Key == "":
			rejected = append(rejected, "zone with empty key")
		case seen[z.Key]:
			rejected = append(rejected, fmt.Sprintf("zone %q: duplicate key", z.Key))
		case z.Kind == models.KindRelay && z.Pin <= 0:
			rejected = append(rejected, fmt.Sprintf("zone %q: relay zone needs a pin", z.Key))
		case z.Kind == models.KindShelly && z.Address == "":
			rejected = append(rejected, fmt.Sprintf("zone %q: shelly zone needs an address", z.Key))
		case z.Kind != models.KindRelay && z.Kind != models.KindShelly:
			rejected = append(rejected, fmt.Sprintf("zone %q: unknown kind %q", z.Key, z.Kind))
		default:
			if z.Name == "" {
				z.Name = z.Key
			}
			seen[z.Key] = true
			kept = append(kept, z)
		}
	}
	c.Zones = kept
	return rejected
}
