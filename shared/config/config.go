package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	Gateway  Gateway  `yaml:"gateway"`
	Realtime Realtime `yaml:"realtime"`
	Replies  Replies  `yaml:"replies"`
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
}

// Gateway is the remote forum REST API.
type Gateway struct {
	BaseURL       string        `yaml:"base_url" validate:"required,url"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts" validate:"gte=1"`
	RetryStep     time.Duration `yaml:"retry_step"` // linear backoff: attempt n waits n*RetryStep
}

// Realtime is the broadcast channel. An empty URL keeps events in-process.
type Realtime struct {
	URL               string        `yaml:"url" validate:"omitempty,url"`
	Channel           string        `yaml:"channel" validate:"required"`
	Event             string        `yaml:"event" validate:"required"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	EventBuffer       int           `yaml:"event_buffer" validate:"gte=1"`
}

type Replies struct {
	MessageMaxLen int `yaml:"message_max_len" validate:"gte=1"`
	// NestFlatFallback rebuilds nesting from idrespuesta_padre when the tree
	// endpoint is down. Off by default: the flat fallback lists every reply
	// at top level.
	NestFlatFallback bool `yaml:"nest_flat_fallback"`
}

type Server struct {
	Port               string   `yaml:"port"`
	SecureCookies      bool     `yaml:"secure_cookies"`
	SessionCookie      string   `yaml:"session_cookie"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	ReplyRatePerMinute float64  `yaml:"reply_rate_per_minute"`
	ReplyBurst         int      `yaml:"reply_burst"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Private struct {
	RealtimeAPIKey string `yaml:"realtime_api_key"`
}

func (c *Config) RealtimeAPIKey() string {
	return c.private.RealtimeAPIKey
}

// Defaults returns a Public config usable without any file; the gateway URL
// still has to be provided.
func Defaults() Public {
	return Public{
		Gateway: Gateway{
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryStep:     500 * time.Millisecond,
		},
		Realtime: Realtime{
			Channel:           "respuestas-realtime",
			Event:             "evento-respuesta",
			HeartbeatInterval: 25 * time.Second,
			EventBuffer:       16,
		},
		Replies: Replies{
			MessageMaxLen: 2000,
		},
		Server: Server{
			Port:               "8081",
			SessionCookie:      "accessToken",
			ReplyRatePerMinute: 6,
			ReplyBurst:         3,
		},
		Log: Log{Level: "info"},
	}
}

func loadPath(configPath string, output any) error {
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("can't read config file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		return fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	return nil
}

// Load reads public.yaml (required) and private.yaml (optional) from
// configFolder on top of Defaults and validates the result.
func Load(configFolder string) (*Config, error) {
	public := Defaults()
	if err := loadPath(path.Join(configFolder, "public.yaml"), &public); err != nil {
		return nil, err
	}

	var private Private
	privatePath := path.Join(configFolder, "private.yaml")
	if _, err := os.Stat(privatePath); err == nil {
		if err := loadPath(privatePath, &private); err != nil {
			return nil, err
		}
	}

	cfg := &Config{Public: public, private: private}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c.Public); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func MustLoad(configFolder string) *Config {
	cfg, err := Load(configFolder)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// New builds a config in code, for tools and tests.
func New(public Public, private Private) *Config {
	return &Config{Public: public, private: private}
}
