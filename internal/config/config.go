package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/spf13/viper"

	"github.com/ritikkashyap720/web-rtc-calling/internal/relay"
)

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	DuplicatePolicy string        `mapstructure:"duplicate_policy"`
	ICEServersJSON  string        `mapstructure:"ice_servers"`

	// Parsed from ICEServersJSON at load time.
	ICEServers []webrtc.ICEServer `mapstructure:"-"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8000)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("duplicate_policy", string(relay.PolicyOverwrite))
	v.SetDefault("ice_servers", `[{"urls":"stun:stun.l.google.com:19302"}]`)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	switch relay.DuplicatePolicy(cfg.DuplicatePolicy) {
	case relay.PolicyOverwrite, relay.PolicyReject, relay.PolicyEvict:
	default:
		return nil, fmt.Errorf("unknown duplicate_policy %q", cfg.DuplicatePolicy)
	}

	servers, err := ParseICEServers(cfg.ICEServersJSON)
	if err != nil {
		return nil, fmt.Errorf("ice_servers: %w", err)
	}
	cfg.ICEServers = servers

	return &cfg, nil
}

// Policy returns the typed duplicate-identity policy.
func (c *Config) Policy() relay.DuplicatePolicy {
	return relay.DuplicatePolicy(c.DuplicatePolicy)
}
