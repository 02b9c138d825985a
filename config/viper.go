package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// LoadViper reads an optional YAML config file and layers it under the
// environment: call it before Load() populates os.Getenv-backed fields, and
// set any key it finds as an environment variable only if that variable is
// not already set, so a deployed env var always wins over the file. path may be empty, in which case this is a
// no-op and Load() falls back entirely to process environment and defaults.
func LoadViper(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	applyViperOverlay(v)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		applyViperOverlay(v)
	})
	return nil
}

// viperKeys are the file keys this overlay understands, mapped to the
// environment variables Load() reads. Nested keys use dot notation in the
// file (e.g. "postgres.host").
var viperKeys = map[string]string{
	"postgres.host":              "POSTGRES_HOST",
	"postgres.port":              "POSTGRES_PORT",
	"postgres.user":              "POSTGRES_USER",
	"postgres.password":          "POSTGRES_PASSWORD",
	"postgres.database":          "POSTGRES_DB",
	"postgres.ssl_mode":          "POSTGRES_SSL_MODE",
	"redis.addr":                 "REDIS_ADDR",
	"redis.password":              "REDIS_PASSWORD",
	"redis.db":                    "REDIS_DB",
	"central_api.gamma_api_url":   "POLYMARKET_GAMMA_API_URL",
	"central_api.data_api_url":    "POLYMARKET_DATA_API_URL",
	"subgraph.endpoint":           "SUBGRAPH_ENDPOINT",
	"discovery.min_anomaly_score":       "DISCOVERY_MIN_ANOMALY_SCORE",
	"discovery.min_insider_probability": "DISCOVERY_MIN_INSIDER_PROBABILITY",
	"monitor.anomaly_threshold":   "MONITOR_ANOMALY_THRESHOLD",
	"operator_http.port":          "OPERATOR_HTTP_PORT",
}

func applyViperOverlay(v *viper.Viper) {
	for fileKey, envKey := range viperKeys {
		if !v.IsSet(fileKey) {
			continue
		}
		if _, present := os.LookupEnv(envKey); present {
			continue
		}
		os.Setenv(envKey, v.GetString(fileKey))
	}
}
