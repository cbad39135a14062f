package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
)

// TuningEnv names the variable holding the tuning file path
const TuningEnv = "TILESLIDE_TUNING"

// envPrefix prefixes every tuning override variable
const envPrefix = "TILESLIDE_"

// tuningFloat maps a yaml key to the tuning field it sets
type tuningFloat struct {
	key   string
	field func(t *engine.Tuning) *float64
}

var tuningFloats = []tuningFloat{
	{"swipe_threshold", func(t *engine.Tuning) *float64 { return &t.SwipeThreshold }},
	{"move_speed", func(t *engine.Tuning) *float64 { return &t.MoveSpeed }},
	{"burst_multiplier", func(t *engine.Tuning) *float64 { return &t.BurstMultiplier }},
	{"burst_duration", func(t *engine.Tuning) *float64 { return &t.BurstDuration }},
	{"stop_epsilon", func(t *engine.Tuning) *float64 { return &t.StopEpsilon }},
	{"overlap_radius", func(t *engine.Tuning) *float64 { return &t.OverlapRadius }},
	{"piece_radius", func(t *engine.Tuning) *float64 { return &t.PieceRadius }},
	{"far_bound", func(t *engine.Tuning) *float64 { return &t.FarBound }},
	{"grid_resolution", func(t *engine.Tuning) *float64 { return &t.GridResolution }},
	{"move_volume", func(t *engine.Tuning) *float64 { return &t.MoveVolume }},
	{"tile_break_volume", func(t *engine.Tuning) *float64 { return &t.TileBreakVolume }},
	{"settle_delay", func(t *engine.Tuning) *float64 { return &t.SettleDelay }},
	{"fade_duration", func(t *engine.Tuning) *float64 { return &t.FadeDuration }},
	{"zoom_duration", func(t *engine.Tuning) *float64 { return &t.ZoomDuration }},
	{"rewind_step_duration", func(t *engine.Tuning) *float64 { return &t.RewindStepDuration }},
	{"rewind_zoom_size", func(t *engine.Tuning) *float64 { return &t.RewindZoomSize }},
	{"skip_speed_multiplier", func(t *engine.Tuning) *float64 { return &t.SkipSpeedMultiplier }},
	{"skip_sound_pitch", func(t *engine.Tuning) *float64 { return &t.SkipSoundPitch }},
	{"screen_aspect", func(t *engine.Tuning) *float64 { return &t.ScreenAspect }},
}

// EnvName returns the override variable for a yaml key
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(key)
}

// LoadTuning reads a YAML tuning file over the defaults. An empty path falls
// back to TILESLIDE_TUNING; when both are empty only defaults and
// environment overrides apply. Keys present in the file win over the
// environment, and the environment wins over defaults.
func LoadTuning(path string) (engine.Tuning, error) {
	t := engine.DefaultTuning()
	present := map[string]any{}

	if path == "" {
		path = os.Getenv(TuningEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return t, fmt.Errorf("failed to read tuning file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &t); err != nil {
			return t, fmt.Errorf("tuning.yaml: %w", err)
		}
		if err := yaml.Unmarshal(raw, &present); err != nil {
			return t, fmt.Errorf("tuning.yaml: %w", err)
		}
	}

	if err := applyEnv(&t, present); err != nil {
		return t, err
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func applyEnv(t *engine.Tuning, present map[string]any) error {
	for _, f := range tuningFloats {
		if _, set := present[f.key]; set {
			continue
		}
		raw := os.Getenv(EnvName(f.key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvName(f.key), err)
		}
		*f.field(t) = v
	}

	if _, set := present["ad_cadence"]; !set {
		if raw := os.Getenv(EnvName("ad_cadence")); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", EnvName("ad_cadence"), err)
			}
			t.AdCadence = v
		}
	}
	if _, set := present["background_variants"]; !set {
		if raw := os.Getenv(EnvName("background_variants")); raw != "" {
			var variants []string
			for _, v := range strings.Split(raw, ",") {
				if v = strings.TrimSpace(v); v != "" {
					variants = append(variants, v)
				}
			}
			t.BackgroundVariants = variants
		}
	}
	return nil
}

// MarshalTuning renders t as YAML
func MarshalTuning(t engine.Tuning) ([]byte, error) {
	return yaml.Marshal(t)
}
