// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Playback Transport - these keys govern the behavior of the playback controller.
const (
	PlayerVolume                   = "player.volume"
	PlayerPreviousRestartThreshold = "player.previous_restart_threshold"
	PlayerToggleDebounceMs         = "player.toggle_debounce_ms"
)

// Signal Processing - these keys hold the persisted equalizer, compressor and limiter parameters.
const (
	EffectsEqualizerEnabled = "effects.equalizer.enabled"
	EffectsEqualizerLow     = "effects.equalizer.low"
	EffectsEqualizerMid     = "effects.equalizer.mid"
	EffectsEqualizerHigh    = "effects.equalizer.high"

	EffectsCompressorThreshold = "effects.compressor.threshold"
	EffectsCompressorRatio     = "effects.compressor.ratio"
	EffectsCompressorAttack    = "effects.compressor.attack"
	EffectsCompressorRelease   = "effects.compressor.release"

	EffectsLimiterEnabled   = "effects.limiter.enabled"
	EffectsLimiterThreshold = "effects.limiter.threshold"
	EffectsLimiterRatio     = "effects.limiter.ratio"
	EffectsLimiterAttack    = "effects.limiter.attack"
	EffectsLimiterRelease   = "effects.limiter.release"
)

// Resilience - these keys configure the per-endpoint call governor and retry policy
// applied to outbound catalog calls.
const (
	ResilienceWindowSeconds = "resilience.window_seconds"
	ResilienceMaxCalls      = "resilience.max_calls"
	ResilienceMinSpacingMs  = "resilience.min_spacing_ms"
	ResilienceMaxRetries    = "resilience.max_retries"
	ResilienceRetryDelayMs  = "resilience.retry_delay_ms"
)

// History Tracking - these keys configure the persistence of the recently-played registry.
const (
	HistorySize       = "history.size"
	HistorySaveOnPlay = "history.save_on_play"
)

// Analytics - these keys control the best-effort play event emission.
const (
	AnalyticsEnabled  = "analytics.enabled"
	AnalyticsEndpoint = "analytics.endpoint"
)

// Catalog Service - these keys locate the upstream catalog used for lookups and search.
const (
	CatalogURL = "catalog.url"
)

// Iconography - these keys manage the visual rendering of CLI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-interactive application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
