package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port       string
	BetTimeout time.Duration
	GinMode    string
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.BetTimeout = time.Duration(getenvInt("BET_TIMEOUT_SEC", 15)) * time.Second
	c.GinMode = getenv("GIN_MODE", "release")
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
