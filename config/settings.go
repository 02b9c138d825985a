package config

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// SettingsFileName is the name of the settings file in the snapshot store.
	SettingsFileName = "surveillance_settings.json"
)

// SettingsSnapshot represents the settings persisted to the snapshot store.
type SettingsSnapshot struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Config    *Config   `json:"config"`
}

// GistStorage is an interface for remote snapshot storage (a Gist, an S3
// object, etc); internal/snapshot supplies the concrete implementation.
// Kept as an interface so SettingsManager
// stays mockable in tests.
type GistStorage interface {
	IsEnabled() bool
	LoadJSON(ctx context.Context, filename string, dest any) error
	SaveJSON(ctx context.Context, filename string, data any) error
	GetGistID() string
}

// SettingsManager handles loading and saving runtime settings from/to the
// remote snapshot store, layered under LiveConfig for hot-reload.
type SettingsManager struct {
	logger       *zap.Logger
	snapshot     GistStorage
	settingsGist string // remote object id holding the settings snapshot (optional)
	liveConfig   *LiveConfig
}

// NewSettingsManager creates a new SettingsManager.
func NewSettingsManager(logger *zap.Logger, snapshot GistStorage, settingsGistID string, liveConfig *LiveConfig) *SettingsManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsManager{
		logger:       logger,
		snapshot:     snapshot,
		settingsGist: settingsGistID,
		liveConfig:   liveConfig,
	}
}

// IsEnabled returns true if settings persistence is available.
func (sm *SettingsManager) IsEnabled() bool {
	return sm.snapshot != nil && sm.snapshot.IsEnabled() && sm.settingsGist != ""
}

// LoadSettings loads settings from the snapshot store and merges with env
// config. Priority: snapshot > environment variables > defaults.
func (sm *SettingsManager) LoadSettings(ctx context.Context, envConfig *Config) (*Config, error) {
	baseConfig := Defaults()

	if envConfig != nil {
		baseConfig = mergeConfigs(baseConfig, envConfig)
	}

	if !sm.IsEnabled() {
		sm.logger.Info("settings snapshot store not configured, using env/defaults")
		return baseConfig, nil
	}

	var snapshot SettingsSnapshot
	err := sm.loadSnapshot(ctx, &snapshot)
	if err != nil {
		sm.logger.Warn("failed to load settings snapshot, using env/defaults",
			zap.Error(err),
		)
		return baseConfig, nil
	}

	if snapshot.Config != nil {
		baseConfig = mergeConfigs(baseConfig, snapshot.Config)
		sm.logger.Info("loaded settings from snapshot store",
			zap.Time("updated_at", snapshot.UpdatedAt),
			zap.Int("version", snapshot.Version),
		)
	}

	return baseConfig, nil
}

// SaveSettings saves the current config to the snapshot store.
func (sm *SettingsManager) SaveSettings(ctx context.Context) error {
	if !sm.IsEnabled() {
		return fmt.Errorf("settings snapshot store not configured")
	}

	cfg := sm.liveConfig.Get()

	snapshot := SettingsSnapshot{
		Version:   1,
		UpdatedAt: time.Now(),
		Config:    cfg,
	}

	if err := sm.saveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("save settings snapshot: %w", err)
	}

	sm.logger.Info("saved settings to snapshot store")
	return nil
}

// UpdateAndSave updates the config and persists it to the snapshot store.
func (sm *SettingsManager) UpdateAndSave(ctx context.Context, newConfig *Config) error {
	if err := sm.liveConfig.Update(newConfig); err != nil {
		return fmt.Errorf("update config: %w", err)
	}

	if sm.IsEnabled() {
		if err := sm.SaveSettings(ctx); err != nil {
			sm.logger.Error("failed to save settings snapshot", zap.Error(err))
			// Don't fail the update, just log the error.
		}
	}

	return nil
}

// UpdatePartialAndSave updates specific fields and persists the merged
// result to the snapshot store.
func (sm *SettingsManager) UpdatePartialAndSave(ctx context.Context, partial *Config) error {
	current := sm.liveConfig.Get()
	merged := mergeConfigs(current, partial)

	return sm.UpdateAndSave(ctx, merged)
}

func (sm *SettingsManager) loadSnapshot(ctx context.Context, dest *SettingsSnapshot) error {
	return sm.snapshot.LoadJSON(ctx, SettingsFileName, dest)
}

func (sm *SettingsManager) saveSnapshot(ctx context.Context, snapshot SettingsSnapshot) error {
	return sm.snapshot.SaveJSON(ctx, SettingsFileName, snapshot)
}

// GetCurrentConfig returns the current config.
func (sm *SettingsManager) GetCurrentConfig() *Config {
	return sm.liveConfig.Get()
}

// GetLiveConfig returns the LiveConfig for observers to register.
func (sm *SettingsManager) GetLiveConfig() *LiveConfig {
	return sm.liveConfig
}

// mergeConfigs merges overlay config onto base config. Only non-zero values
// from overlay are applied; credential-bearing fields excluded from JSON
// (tagged `json:"-"`) are preserved explicitly since the marshal/unmarshal
// merge can't see them.
func mergeConfigs(base, overlay *Config) *Config {
	if base == nil {
		base = Defaults()
	}
	if overlay == nil {
		return base.Clone()
	}

	// Use JSON marshal/unmarshal to merge: marshaling the overlay omits its
	// zero-valued fields, so unmarshaling onto a clone of base only
	// overwrites what the overlay actually set.
	result := base.Clone()

	overlayJSON, err := json.Marshal(overlay)
	if err != nil {
		return result
	}
	_ = json.Unmarshal(overlayJSON, result)

	// Credential fields are excluded from JSON and so are invisible to the
	// marshal/unmarshal merge above: apply them by hand, preferring overlay
	// when set.
	result.Postgres.User = firstNonEmpty(overlay.Postgres.User, base.Postgres.User)
	result.Postgres.Password = firstNonEmpty(overlay.Postgres.Password, base.Postgres.Password)
	result.Redis.Password = firstNonEmpty(overlay.Redis.Password, base.Redis.Password)

	return result
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// SettingsInfo provides metadata about the current settings state.
type SettingsInfo struct {
	Source      string    `json:"source"` // "snapshot", "env", "default"
	LastUpdated time.Time `json:"last_updated"`
	GistEnabled bool      `json:"gist_enabled"`
	GistID      string    `json:"gist_id,omitempty"`
	IsValid     bool      `json:"is_valid"`
	Errors      []string  `json:"errors,omitempty"`
}

// GetSettingsInfo returns metadata about the current settings.
func (sm *SettingsManager) GetSettingsInfo() SettingsInfo {
	cfg := sm.liveConfig.Get()
	validation := cfg.Validate()

	info := SettingsInfo{
		LastUpdated: sm.liveConfig.LastUpdated(),
		GistEnabled: sm.IsEnabled(),
		IsValid:     validation.Valid,
	}

	if sm.IsEnabled() {
		info.Source = "snapshot"
		info.GistID = sm.settingsGist
	} else {
		info.Source = "env"
	}

	for _, e := range validation.Errors {
		info.Errors = append(info.Errors, e.Field+": "+e.Message)
	}

	return info
}
