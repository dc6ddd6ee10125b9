// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/sangeet-cli/sangeet/color"
	"github.com/sangeet-cli/sangeet/constant"
	"github.com/sangeet-cli/sangeet/key"
	"github.com/sangeet-cli/sangeet/style"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// MarshalJSON customizes JSON output to include current and default values.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        reflect.TypeOf(f.Value).String(),
	})
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))

// Env returns the environment variable name for this field.
func (f Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Sangeet + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// Get returns the current effective value of the field.
func (f Field) Get() any {
	return viper.Get(f.Key)
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PlayerVolume, 1.0, "Initial playback volume. From 0.0 to 1.0")
	register(key.PlayerPreviousRestartThreshold, 3.0, "Seconds of playback after which \"previous\" restarts the current track\ninstead of moving the cursor")
	register(key.PlayerToggleDebounceMs, 150, "Debounce window for rapid play/pause toggles, in milliseconds")

	register(key.EffectsEqualizerEnabled, false, "Enable the equalizer stages of the processing chain")
	register(key.EffectsEqualizerLow, 0.0, "Low shelf gain in dB (~200 Hz)")
	register(key.EffectsEqualizerMid, 0.0, "Mid peak gain in dB (~2 kHz)")
	register(key.EffectsEqualizerHigh, 0.0, "High shelf gain in dB (~8 kHz)")
	register(key.EffectsCompressorThreshold, -24.0, "Compressor threshold in dB")
	register(key.EffectsCompressorRatio, 3.0, "Compressor ratio")
	register(key.EffectsCompressorAttack, 0.003, "Compressor attack in seconds")
	register(key.EffectsCompressorRelease, 0.25, "Compressor release in seconds")
	register(key.EffectsLimiterEnabled, false, "Enable the limiter stage of the processing chain")
	register(key.EffectsLimiterThreshold, -6.0, "Limiter threshold in dB")
	register(key.EffectsLimiterRatio, 20.0, "Limiter ratio")
	register(key.EffectsLimiterAttack, 0.001, "Limiter attack in seconds")
	register(key.EffectsLimiterRelease, 0.1, "Limiter release in seconds")

	register(key.ResilienceWindowSeconds, 60, "Sliding window length for the per-endpoint call governor, in seconds")
	register(key.ResilienceMaxCalls, 60, "Maximum calls per endpoint within one governor window")
	register(key.ResilienceMinSpacingMs, 500, "Minimum spacing between calls to the same endpoint, in milliseconds")
	register(key.ResilienceMaxRetries, 3, "Retry attempts for rate-limited catalog calls")
	register(key.ResilienceRetryDelayMs, 1000, "Base retry delay, multiplied linearly by the attempt number")

	register(key.HistorySize, 50, "Maximum number of entries kept in the recently-played registry")
	register(key.HistorySaveOnPlay, true, "Record tracks in the recently-played registry on playback")

	register(key.AnalyticsEnabled, true, "Emit best-effort play events to the analytics collaborator")
	register(key.AnalyticsEndpoint, "", "Analytics ingestion endpoint.\nEmission is skipped when empty")

	register(key.CatalogURL, "", "Base URL of the upstream catalog service")

	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, nerd (nerd-font required)")

	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")

	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
}
