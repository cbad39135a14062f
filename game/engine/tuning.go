package engine

import (
	"errors"
	"fmt"
)

// Tuning holds every gameplay constant. Times are in seconds, distances in
// level units (one cell is one unit).
type Tuning struct {
	SwipeThreshold  float64 `yaml:"swipe_threshold" json:"swipe_threshold"`
	MoveSpeed       float64 `yaml:"move_speed" json:"move_speed"`
	BurstMultiplier float64 `yaml:"burst_multiplier" json:"burst_multiplier"`
	BurstDuration   float64 `yaml:"burst_duration" json:"burst_duration"`
	StopEpsilon     float64 `yaml:"stop_epsilon" json:"stop_epsilon"`
	OverlapRadius   float64 `yaml:"overlap_radius" json:"overlap_radius"`
	PieceRadius     float64 `yaml:"piece_radius" json:"piece_radius"`
	FarBound        float64 `yaml:"far_bound" json:"far_bound"`
	GridResolution  float64 `yaml:"grid_resolution" json:"grid_resolution"`
	MoveVolume      float64 `yaml:"move_volume" json:"move_volume"`
	TileBreakVolume float64 `yaml:"tile_break_volume" json:"tile_break_volume"`

	SettleDelay         float64 `yaml:"settle_delay" json:"settle_delay"`
	FadeDuration        float64 `yaml:"fade_duration" json:"fade_duration"`
	ZoomDuration        float64 `yaml:"zoom_duration" json:"zoom_duration"`
	RewindStepDuration  float64 `yaml:"rewind_step_duration" json:"rewind_step_duration"`
	RewindZoomSize      float64 `yaml:"rewind_zoom_size" json:"rewind_zoom_size"`
	SkipSpeedMultiplier float64 `yaml:"skip_speed_multiplier" json:"skip_speed_multiplier"`
	SkipSoundPitch      float64 `yaml:"skip_sound_pitch" json:"skip_sound_pitch"`
	SuccessEffectPoint  *Vec2   `yaml:"success_effect_point,omitempty" json:"success_effect_point,omitempty"`

	ScreenAspect       float64  `yaml:"screen_aspect" json:"screen_aspect"`
	AdCadence          int      `yaml:"ad_cadence" json:"ad_cadence"`
	BackgroundVariants []string `yaml:"background_variants,omitempty" json:"background_variants,omitempty"`
}

// DefaultTuning returns the stock gameplay constants
func DefaultTuning() Tuning {
	return Tuning{
		SwipeThreshold:  50,
		MoveSpeed:       5,
		BurstMultiplier: 2,
		BurstDuration:   0.15,
		StopEpsilon:     0.01,
		OverlapRadius:   0.1,
		PieceRadius:     0.4,
		FarBound:        50,
		GridResolution:  0.5,
		MoveVolume:      1,
		TileBreakVolume: 0.1,

		SettleDelay:         0.7,
		FadeDuration:        0.2,
		ZoomDuration:        1,
		RewindStepDuration:  0.3,
		RewindZoomSize:      3,
		SkipSpeedMultiplier: 6,
		SkipSoundPitch:      1.5,
		SuccessEffectPoint:  &Vec2{X: 0, Y: 0},

		ScreenAspect: 9.0 / 16.0,
		AdCadence:    2,
	}
}

// Validate checks that the constants can drive a simulation
func (t Tuning) Validate() error {
	var errs []error
	positive := []struct {
		name string
		v    float64
	}{
		{"move_speed", t.MoveSpeed},
		{"stop_epsilon", t.StopEpsilon},
		{"piece_radius", t.PieceRadius},
		{"far_bound", t.FarBound},
		{"grid_resolution", t.GridResolution},
		{"screen_aspect", t.ScreenAspect},
		{"rewind_zoom_size", t.RewindZoomSize},
		{"skip_speed_multiplier", t.SkipSpeedMultiplier},
	}
	for _, f := range positive {
		if f.v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", f.name, f.v))
		}
	}
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"swipe_threshold", t.SwipeThreshold},
		{"burst_duration", t.BurstDuration},
		{"overlap_radius", t.OverlapRadius},
		{"settle_delay", t.SettleDelay},
		{"fade_duration", t.FadeDuration},
		{"zoom_duration", t.ZoomDuration},
		{"rewind_step_duration", t.RewindStepDuration},
		{"move_volume", t.MoveVolume},
		{"tile_break_volume", t.TileBreakVolume},
	}
	for _, f := range nonNegative {
		if f.v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %v", f.name, f.v))
		}
	}
	if t.BurstMultiplier < 1 {
		errs = append(errs, fmt.Errorf("burst_multiplier must be at least 1, got %v", t.BurstMultiplier))
	}
	if t.AdCadence < 0 {
		errs = append(errs, fmt.Errorf("ad_cadence must not be negative, got %d", t.AdCadence))
	}
	if len(errs) > 0 {
		return fmt.Errorf("tuning validation: %w", errors.Join(errs...))
	}
	return nil
}
