package effects

import (
	"github.com/sangeet-cli/sangeet/config"
	"github.com/sangeet-cli/sangeet/key"
	"github.com/spf13/viper"
)

// Stage placement constants of the equalizer section.
const (
	lowShelfHz  = 200
	midPeakHz   = 2000
	midPeakQ    = 1.0
	highShelfHz = 8000

	compressorKnee = 30
	limiterKnee    = 0
)

// EqualizerConfig holds the three band gains of the equalizer section.
type EqualizerConfig struct {
	Enabled bool
	// Gains in dB.
	Low, Mid, High float64
}

// Config mirrors the persisted processing preferences.
//
// It is loaded once at engine start and written back on every mutation; the
// chain is the only mutator.
type Config struct {
	Equalizer      EqualizerConfig
	Compressor     DynamicsParams
	Limiter        DynamicsParams
	LimiterEnabled bool
}

// LoadConfig reads the persisted processing preferences from the global settings.
func LoadConfig() Config {
	return Config{
		Equalizer: EqualizerConfig{
			Enabled: viper.GetBool(key.EffectsEqualizerEnabled),
			Low:     viper.GetFloat64(key.EffectsEqualizerLow),
			Mid:     viper.GetFloat64(key.EffectsEqualizerMid),
			High:    viper.GetFloat64(key.EffectsEqualizerHigh),
		},
		Compressor: DynamicsParams{
			Threshold: viper.GetFloat64(key.EffectsCompressorThreshold),
			Ratio:     viper.GetFloat64(key.EffectsCompressorRatio),
			Knee:      compressorKnee,
			Attack:    viper.GetFloat64(key.EffectsCompressorAttack),
			Release:   viper.GetFloat64(key.EffectsCompressorRelease),
		},
		Limiter: DynamicsParams{
			Threshold: viper.GetFloat64(key.EffectsLimiterThreshold),
			Ratio:     viper.GetFloat64(key.EffectsLimiterRatio),
			Knee:      limiterKnee,
			Attack:    viper.GetFloat64(key.EffectsLimiterAttack),
			Release:   viper.GetFloat64(key.EffectsLimiterRelease),
		},
		LimiterEnabled: viper.GetBool(key.EffectsLimiterEnabled),
	}
}

// Save writes the configuration back to the persisted settings file.
func (c Config) Save() error {
	viper.Set(key.EffectsEqualizerEnabled, c.Equalizer.Enabled)
	viper.Set(key.EffectsEqualizerLow, c.Equalizer.Low)
	viper.Set(key.EffectsEqualizerMid, c.Equalizer.Mid)
	viper.Set(key.EffectsEqualizerHigh, c.Equalizer.High)

	viper.Set(key.EffectsCompressorThreshold, c.Compressor.Threshold)
	viper.Set(key.EffectsCompressorRatio, c.Compressor.Ratio)
	viper.Set(key.EffectsCompressorAttack, c.Compressor.Attack)
	viper.Set(key.EffectsCompressorRelease, c.Compressor.Release)

	viper.Set(key.EffectsLimiterEnabled, c.LimiterEnabled)
	viper.Set(key.EffectsLimiterThreshold, c.Limiter.Threshold)
	viper.Set(key.EffectsLimiterRatio, c.Limiter.Ratio)
	viper.Set(key.EffectsLimiterAttack, c.Limiter.Attack)
	viper.Set(key.EffectsLimiterRelease, c.Limiter.Release)

	return config.Write()
}
