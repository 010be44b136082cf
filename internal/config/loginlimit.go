package config

import (
	"os"
	"time"
)

// LoginLimitConfig controls the fixed-window limiter that guards the
// login endpoint. The window and attempt cap are read once at process
// start; SweepInterval bounds memory growth of the per-IP map.
type LoginLimitConfig struct {
	Enabled       bool
	Window        time.Duration
	MaxAttempts   int
	SweepInterval time.Duration
}

func LoadLoginLimitConfig() LoginLimitConfig {
	def := LoginLimitConfig{
		Enabled:       envBool("LOGIN_LIMIT_ENABLED", true),
		Window:        envDur("LOGIN_LIMIT_WINDOW", 15*time.Minute),
		MaxAttempts:   envInt("LOGIN_LIMIT_MAX_ATTEMPTS", 5),
		SweepInterval: envDur("LOGIN_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
	}
	if def.MaxAttempts < 1 {
		def.MaxAttempts = 1
	}
	if def.Window <= 0 {
		def.Window = 15 * time.Minute
	}
	if def.SweepInterval <= 0 {
		def.SweepInterval = 5 * time.Minute
	}
	return def
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
