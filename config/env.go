// Package config reads flag defaults from the environment.
//
// Unset or unparsable variables fall back to the given default, so a bad
// value never stops a binary from starting; the flag can still override it.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func EnvString(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func EnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}
	return def
}

func EnvInt64(key string, def int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return i
		}
	}
	return def
}

func EnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return def
}

func EnvDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return def
}

// EnvBool treats true, 1 and yes as true; any other non-empty value is false.
func EnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		}
		return false
	}
	return def
}
