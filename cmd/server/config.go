package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080" validate:"min=1,max=65535"`
	LogLevel string `env:"LOG_LEVEL,default=info" validate:"oneof=trace debug info warn error"`

	APIKey    string        `env:"LIVEKIT_API_KEY"`
	APISecret string        `env:"LIVEKIT_API_SECRET"`
	MediaURL  string        `env:"MEDIA_URL,required=true" validate:"url"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=10m" validate:"gt=0,lte=10m"`

	// BridgeURL empty runs an embedded hub that serves /ws on the relay itself.
	BridgeURL      string        `env:"BRIDGE_URL" validate:"omitempty,url"`
	BridgeSecret   string        `env:"BRIDGE_SECRET"`
	BridgeTimeout  time.Duration `env:"BRIDGE_TIMEOUT,default=5s" validate:"gt=0,lte=1m"`
	BroadcastTypes string        `env:"BROADCAST_TYPES,default=user_presence"`

	SessionSecret string `env:"SESSION_SECRET"`
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) BroadcastTypeList() []string {
	types := lo.Map(strings.Split(c.BroadcastTypes, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Uniq(lo.Compact(types))
}
