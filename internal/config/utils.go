package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup parses the variable named key, keeping defaultVal when it is unset
// or unparsable.
func lookup[T any](key string, defaultVal T, parse func(string) (T, error)) T {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	v, err := parse(strings.TrimSpace(value))
	if err != nil {
		return defaultVal
	}
	return v
}

func getEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	return lookup(key, defaultVal, strconv.Atoi)
}

func getEnvAsBool(key string, defaultVal bool) bool {
	return lookup(key, defaultVal, strconv.ParseBool)
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	return lookup(key, defaultVal, time.ParseDuration)
}

// getEnvAsBytes reads a size such as 1048576, 512KiB or 1MiB.
func getEnvAsBytes(key string, defaultVal int64) int64 {
	return lookup(key, defaultVal, parseBytes)
}

func getEnvAsStringSlice(key string, defaults []string) []string {
	return lookup(key, defaults, func(value string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("empty list")
		}
		return out, nil
	})
}

var byteUnits = []struct {
	suffix string
	scale  int64
}{
	{"GiB", 1 << 30},
	{"MiB", 1 << 20},
	{"KiB", 1 << 10},
	{"B", 1},
}

func parseBytes(value string) (int64, error) {
	for _, unit := range byteUnits {
		if n, ok := strings.CutSuffix(value, unit.suffix); ok {
			v, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
			if err != nil {
				return 0, err
			}
			return v * unit.scale, nil
		}
	}
	return strconv.ParseInt(value, 10, 64)
}
