// Package config loads surveillance system configuration from the
// environment, with an optional file overlay loaded before the env pass so
// environment variables always win.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	IsProd bool `json:"is_prod"`

	Postgres      PostgresConfig      `json:"postgres"`
	Redis         RedisConfig         `json:"redis"`
	CentralAPI    CentralAPIConfig    `json:"central_api"`
	Subgraph      SubgraphConfig      `json:"subgraph"`
	HealthMonitor HealthMonitorConfig `json:"health_monitor"`
	Ingest        IngestConfig        `json:"ingest"`
	Baseline      BaselineConfig      `json:"baseline"`
	Scoring       ScoringConfig       `json:"scoring"`
	Discovery     DiscoveryConfig     `json:"discovery"`
	Monitor       MonitorConfig       `json:"monitor"`
	Feedback      FeedbackConfig      `json:"feedback"`
	OperatorHTTP  OperatorHTTPConfig  `json:"operator_http"`
	Snapshot      SnapshotConfig      `json:"snapshot"`
}

// Clone returns a deep copy, safe for a caller to hold independently of the
// LiveConfig it came from.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	clone.OperatorHTTP.CORSOrigins = append([]string(nil), c.OperatorHTTP.CORSOrigins...)
	return &clone
}

// PostgresConfig configures the system-of-record store.
type PostgresConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	User              string        `json:"-"` // Excluded - env var only
	Password          string        `json:"-"` // Excluded - env var only
	Database          string        `json:"database"`
	SSLMode           string        `json:"ssl_mode"`
	MaxConns          int           `json:"max_conns"`
	MinConns          int           `json:"min_conns"`
	MaxConnLifetime   time.Duration `json:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `json:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `json:"health_check_period"`
}

// RedisConfig configures the Redis connection and the alert/failover
// pub/sub channels.
type RedisConfig struct {
	Addr               string `json:"addr"`
	Password           string `json:"-"` // Excluded - env var only
	DB                 int    `json:"db"`
	FailoverChannel    string `json:"failover_channel"`
	AlertsChannel      string `json:"alerts_channel"`
}

// CentralAPIConfig configures the centralized Gamma/Data API fetcher.
type CentralAPIConfig struct {
	GammaAPIURL   string        `json:"gamma_api_url"`
	DataAPIURL    string        `json:"data_api_url"`
	PageSize      int           `json:"page_size"`
	RequestTimeout time.Duration `json:"request_timeout"`
	MaxRetries    int           `json:"max_retries"`
}

// SubgraphConfig configures the GraphQL subgraph fetcher.
type SubgraphConfig struct {
	Endpoint       string        `json:"endpoint"`
	PageSize       int           `json:"page_size"`
	MaxPageSize    int           `json:"max_page_size"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// HealthMonitorConfig configures source health tracking and failover.
type HealthMonitorConfig struct {
	WindowSize       int           `json:"window_size"`
	ProbeInterval    time.Duration `json:"probe_interval"`
	FailureThreshold float64       `json:"failure_threshold"`
}

// IngestConfig configures the ingestion pipeline.
type IngestConfig struct {
	BatchSize       int           `json:"batch_size"`
	PollInterval    time.Duration `json:"poll_interval"`
	Workers         int           `json:"workers"`
	StubAutoCreate  bool          `json:"stub_auto_create"`
}

// BaselineConfig configures the statistical baseline engine.
type BaselineConfig struct {
	RecomputeInterval time.Duration `json:"recompute_interval"`
	MinSamples        int           `json:"min_samples"`
}

// ScoringConfig configures per-trade anomaly scoring.
type ScoringConfig struct {
	UseWeightedMode  bool    `json:"use_weighted_mode"`
	TrinityThreshold float64 `json:"trinity_threshold"`
	TrinityBoost     float64 `json:"trinity_boost"`
}

// DiscoveryConfig configures candidate discovery.
type DiscoveryConfig struct {
	MinAnomalyScore     float64       `json:"min_anomaly_score"`
	MinInsiderProbability float64     `json:"min_insider_probability"`
	Interval            time.Duration `json:"interval"`
	ExcludeKnown        bool          `json:"exclude_known"`
	DefaultLimit        int           `json:"default_limit"`
}

// MonitorConfig configures the real-time polling alert monitor.
type MonitorConfig struct {
	Enabled             bool          `json:"enabled"`
	PollInterval        time.Duration `json:"poll_interval"`
	AnomalyThreshold    float64       `json:"anomaly_threshold"`
	ProbabilityThreshold float64      `json:"probability_threshold"`
	PatternAlertOnly    bool          `json:"pattern_alert_only"`
}

// FeedbackConfig configures the confirmed-insider feedback loop.
type FeedbackConfig struct {
	RescoreBatchSize int  `json:"rescore_batch_size"`
	AutoRebaseline   bool `json:"auto_rebaseline"`
}

// OperatorHTTPConfig configures the operator-facing HTTP command surface.
type OperatorHTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port"`
	CORSOrigins []string `json:"cors_origins"`
}

// SnapshotConfig configures the remote snapshot store internal/snapshot
// writes settings/runtime-state backups to (a GitHub gist, the
// GistStorage interface's concrete backend).
type SnapshotConfig struct {
	Token          string `json:"-"` // Excluded - env var only
	GistID         string `json:"gist_id"`
	SettingsGistID string `json:"settings_gist_id"`
}

// Defaults returns a Config built from each field's documented default. It
// is Load under another name -- every field already falls back to its
// documented default when the corresponding environment variable is unset --
// used to seed a LiveConfig before the first real Load() and as the
// baseline SettingsManager resets to.
func Defaults() *Config {
	return Load()
}

// Load builds a Config from the environment, optionally overlaid by a
// viper-backed file loaded first via LoadViper -- env vars always win.
func Load() *Config {
	return &Config{
		IsProd: envBool("STAGE", "PROD"),

		Postgres: PostgresConfig{
			Host:              envString("POSTGRES_HOST", "localhost"),
			Port:              envInt("POSTGRES_PORT", 5432),
			User:              envString("POSTGRES_USER", "surveillance"),
			Password:          envString("POSTGRES_PASSWORD", ""),
			Database:          envString("POSTGRES_DB", "surveillance"),
			SSLMode:           envString("POSTGRES_SSL_MODE", "disable"),
			MaxConns:          envInt("POSTGRES_MAX_CONNS", 20),
			MinConns:          envInt("POSTGRES_MIN_CONNS", 2),
			MaxConnLifetime:   envDuration("POSTGRES_MAX_CONN_LIFETIME", 1*time.Hour),
			MaxConnIdleTime:   envDuration("POSTGRES_MAX_CONN_IDLE_TIME", 15*time.Minute),
			HealthCheckPeriod: envDuration("POSTGRES_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},

		Redis: RedisConfig{
			Addr:            envString("REDIS_ADDR", "localhost:6379"),
			Password:        envString("REDIS_PASSWORD", ""),
			DB:              envInt("REDIS_DB", 0),
			FailoverChannel: envString("REDIS_FAILOVER_CHANNEL", "data_source:failover"),
			AlertsChannel:   envString("REDIS_ALERTS_CHANNEL", "polymarket:alerts"),
		},

		CentralAPI: CentralAPIConfig{
			GammaAPIURL:    envString("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
			DataAPIURL:     envString("POLYMARKET_DATA_API_URL", "https://data-api.polymarket.com"),
			PageSize:       envInt("CENTRAL_API_PAGE_SIZE", 500),
			RequestTimeout: envDuration("CENTRAL_API_REQUEST_TIMEOUT", 15*time.Second),
			MaxRetries:     envInt("CENTRAL_API_MAX_RETRIES", 3),
		},

		Subgraph: SubgraphConfig{
			Endpoint:       envString("SUBGRAPH_ENDPOINT", "https://api.thegraph.com/subgraphs/name/polymarket/matic-markets"),
			PageSize:       envInt("SUBGRAPH_PAGE_SIZE", 500),
			MaxPageSize:    envInt("SUBGRAPH_MAX_PAGE_SIZE", 1000),
			RequestTimeout: envDuration("SUBGRAPH_REQUEST_TIMEOUT", 15*time.Second),
		},

		HealthMonitor: HealthMonitorConfig{
			WindowSize:       envInt("HEALTH_WINDOW_SIZE", 10),
			ProbeInterval:    envDuration("HEALTH_PROBE_INTERVAL", 2*time.Minute),
			FailureThreshold: envFloat("HEALTH_FAILURE_THRESHOLD", 0.50),
		},

		Ingest: IngestConfig{
			BatchSize:      envInt("INGEST_BATCH_SIZE", 500),
			PollInterval:   envDuration("INGEST_POLL_INTERVAL", 1*time.Minute),
			Workers:        envInt("INGEST_WORKERS", 8),
			StubAutoCreate: envBoolDefault("INGEST_STUB_AUTO_CREATE", true),
		},

		Baseline: BaselineConfig{
			RecomputeInterval: envDuration("BASELINE_RECOMPUTE_INTERVAL", 24*time.Hour),
			MinSamples:        envInt("BASELINE_MIN_SAMPLES", 10),
		},

		Scoring: ScoringConfig{
			UseWeightedMode:  envBoolDefault("SCORING_USE_WEIGHTED_MODE", true),
			TrinityThreshold: envFloat("SCORING_TRINITY_THRESHOLD", 2.0),
			TrinityBoost:     envFloat("SCORING_TRINITY_BOOST", 1.25),
		},

		Discovery: DiscoveryConfig{
			MinAnomalyScore:       envFloat("DISCOVERY_MIN_ANOMALY_SCORE", 0.70),
			MinInsiderProbability: envFloat("DISCOVERY_MIN_INSIDER_PROBABILITY", 0.60),
			Interval:              envDuration("DISCOVERY_INTERVAL", 1*time.Hour),
			ExcludeKnown:          envBoolDefault("DISCOVERY_EXCLUDE_KNOWN", true),
			DefaultLimit:          envInt("DISCOVERY_DEFAULT_LIMIT", 50),
		},

		Monitor: MonitorConfig{
			Enabled:              envBoolDefault("MONITOR_ENABLED", true),
			PollInterval:         envDuration("MONITOR_POLL_INTERVAL", 10*time.Second),
			AnomalyThreshold:     envFloat("MONITOR_ANOMALY_THRESHOLD", 0.70),
			ProbabilityThreshold: envFloat("MONITOR_PROBABILITY_THRESHOLD", 0.85),
			PatternAlertOnly:     envBoolDefault("MONITOR_PATTERN_ALERT_ONLY", false),
		},

		Feedback: FeedbackConfig{
			RescoreBatchSize: envInt("FEEDBACK_RESCORE_BATCH_SIZE", 500),
			AutoRebaseline:   envBoolDefault("FEEDBACK_AUTO_REBASELINE", true),
		},

		OperatorHTTP: OperatorHTTPConfig{
			Enabled:     envBoolDefault("OPERATOR_HTTP_ENABLED", true),
			Port:        envInt("OPERATOR_HTTP_PORT", 8080),
			CORSOrigins: envStringSliceDefault("OPERATOR_HTTP_CORS_ORIGINS", []string{"*"}),
		},

		Snapshot: SnapshotConfig{
			Token:          envString("SNAPSHOT_GITHUB_TOKEN", ""),
			GistID:         envString("SNAPSHOT_GIST_ID", ""),
			SettingsGistID: envString("SNAPSHOT_SETTINGS_GIST_ID", ""),
		},
	}
}

// Helper functions for parsing environment variables

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envBool(key, trueValue string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), trueValue)
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}

func envStringSliceDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
