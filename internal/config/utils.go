package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Additional-Code/millflow/internal/entity"
)

func getEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value, ok := os.LookupEnv(key); ok {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaults []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		filtered := make([]string, 0, len(parts))
		for _, part := range parts {
			p := strings.TrimSpace(part)
			if p != "" {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			return filtered
		}
	}
	return defaults
}

// getEnvAsStageRates reads comma separated stage=rate pairs, for example
// "cutting=1.5,drilling=0.4". An unset variable yields an empty map.
func getEnvAsStageRates(key string) (map[entity.Stage]float64, error) {
	rates := make(map[entity.Stage]float64)
	for _, pair := range getEnvAsStringSlice(key, nil) {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%s: expected stage=rate, got %q", key, pair)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid rate for %s: %w", key, name, err)
		}
		stage, err := parseStageRate(strings.TrimSpace(name), rate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		rates[stage] = rate
	}
	return rates, nil
}

func parseStageRate(name string, rate float64) (entity.Stage, error) {
	stage := entity.Stage(name)
	if stage.Index() < 0 {
		return "", fmt.Errorf("unknown stage %q", name)
	}
	if rate < 0 {
		return "", fmt.Errorf("negative rate for %s", name)
	}
	return stage, nil
}
