package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LevelConfig is the on-disk description of a level
type LevelConfig struct {
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Order        int               `json:"order,omitempty"`
	Layout       []string          `json:"layout"`
	CameraTarget *SizeConfig       `json:"camera_target,omitempty"`
	Background   *BackgroundConfig `json:"background,omitempty"`
}

// SizeConfig is a width and height in level units
type SizeConfig struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BackgroundConfig describes a level backdrop
type BackgroundConfig struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Variant string  `json:"variant,omitempty"`
}

// ValidateLevelConfig validates a level configuration for correctness and
// solvability of its shape (not its puzzle; see Solve).
func ValidateLevelConfig(config *LevelConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if len(config.Layout) < MinLayoutSize || len(config.Layout) > MaxLayoutSize {
		return fmt.Errorf("config validation: layout must have between %d and %d rows, got %d",
			MinLayoutSize, MaxLayoutSize, len(config.Layout))
	}

	width := len(config.Layout[0])
	starts := 0
	tiles := 0
	for i, row := range config.Layout {
		if len(row) != width {
			return fmt.Errorf("config validation: row %d must have %d characters to match row 1, got %d",
				i+1, width, len(row))
		}
		if len(row) < MinLayoutSize || len(row) > MaxLayoutSize {
			return fmt.Errorf("config validation: row %d must have between %d and %d characters, got %d",
				i+1, MinLayoutSize, MaxLayoutSize, len(row))
		}
		for j, char := range row {
			switch char {
			case CellWall, CellVoid, CellVoidAlt:
			case CellPath:
				tiles++
			case CellStart:
				tiles++
				starts++
			case CellStartBare:
				starts++
			default:
				return fmt.Errorf("config validation: invalid character '%c' at row %d, col %d", char, i+1, j+1)
			}
		}
	}

	if starts != 1 {
		return fmt.Errorf("config validation: layout must contain exactly one start (S or s) cell, got %d", starts)
	}
	if tiles == 0 {
		return fmt.Errorf("config validation: layout must contain at least one path (.) cell")
	}

	// Every walkable cell must be enclosed so the piece can never leave the level
	for i, row := range config.Layout {
		for j, char := range row {
			if char != CellPath && char != CellStart && char != CellStartBare {
				continue
			}
			for _, d := range AllDirections {
				c := Cell{Col: j, Row: i}
				for {
					c = c.Step(d)
					if c.Row < 0 || c.Row >= len(config.Layout) || c.Col < 0 || c.Col >= width {
						return fmt.Errorf("config validation: cell at row %d, col %d is not enclosed by walls (%s)",
							i+1, j+1, d)
					}
					if config.Layout[c.Row][c.Col] == CellWall {
						break
					}
				}
			}
		}
	}

	if config.CameraTarget != nil && (config.CameraTarget.Width <= 0 || config.CameraTarget.Height <= 0) {
		return fmt.Errorf("config validation: camera_target width and height must be positive")
	}
	if config.Background != nil && (config.Background.Width <= 0 || config.Background.Height <= 0) {
		return fmt.Errorf("config validation: background width and height must be positive")
	}

	return nil
}

// LoadLevelConfig loads and validates a level configuration from a JSON file
func LoadLevelConfig(filename string) (*LevelConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config LevelConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse level file '%s': %w", filepath.Base(filename), err)
	}
	if config.Name == "" {
		config.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	if err := ValidateLevelConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid level '%s': %w", filepath.Base(filename), err)
	}

	return &config, nil
}

// BuildLevels builds every config in order. Level indices follow the slice.
func BuildLevels(configs []*LevelConfig) ([]*Level, error) {
	levels := make([]*Level, 0, len(configs))
	for i, cfg := range configs {
		l, err := BuildLevel(cfg, i)
		if err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, nil
}
