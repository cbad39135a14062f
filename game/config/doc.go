// Package config loads the tile-slide level pack and gameplay tuning.
//
// The config package handles:
//   - Loading level files from a directory of JSON files
//   - Schema and shape validation of every level
//   - Level discovery, ordering and caching
//   - YAML tuning with environment overrides
//
// Level Format:
//
// Each level file holds a name, an optional description and order, and a
// layout of equal-width rows:
//
//	#  wall
//	.  path tile
//	S  spawn marker on a path tile
//	s  spawn marker without a tile
//	   (space or -) void
//
// Optional camera_target and background sizes frame the level.
//
// Ordering:
//
// Pack returns the levels sorted by order, then by file name. The position
// in that list is the level index a game persists as progress.
//
// Tuning:
//
// LoadTuning starts from engine.DefaultTuning, applies a YAML file and then
// TILESLIDE_<KEY> variables for keys the file leaves out.
//
// Usage:
//
//	levels, err := config.NewManager("levels", log)
//	if err != nil {
//		log.Fatal(err)
//	}
//	pack, err := levels.Pack()
//	tuning, err := config.LoadTuning("tuning.yaml")
package config
