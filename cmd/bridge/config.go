package main

import "fmt"

type Config struct {
	Host         string `env:"HOST,default=0.0.0.0"`
	Port         int    `env:"PORT,default=8081"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`
	BridgeSecret string `env:"BRIDGE_SECRET"`
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
