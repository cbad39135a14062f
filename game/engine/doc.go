// Package engine provides the core simulation of the sliding tile puzzle.
//
// The engine package implements the game mechanics including:
//   - Swipe interpretation and grid-snapped sliding with wall stops
//   - Path tiles that break as the piece passes and count toward completion
//   - The level-complete replay: fade, zoom, rewind, celebrate, advance
//   - Level sequencing with persisted progress and interstitial cadence
//   - Level configuration loading, validation and solving
//
// Core Types:
//
// Game is the composition root, implementing Engine. It owns a Mover (input
// and motion), a Sequencer (levels, tiles, history) and, through it, an
// Orchestrator (the replay state machine). Collaborators such as Audio,
// Camera, HUD, Effects, Ads and ProgressStore are injected through Options
// and may be nil.
//
// The simulation is single-threaded and tick-driven. Nothing runs on its own
// goroutine: callers feed elapsed time to Game.Tick and every timer, replay
// phase and audio callback advances from there.
//
// Usage:
//
//	levels, err := engine.BuildLevels(configs)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game, err := engine.NewGame(engine.Options{
//		Tuning: engine.DefaultTuning(),
//		Levels: levels,
//		Camera: &engine.ViewCamera{},
//		HUD:    engine.NewPanelHUD(),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := game.Start(); err != nil {
//		log.Fatal(err)
//	}
//
//	game.Swipe(engine.GestureFor(engine.DirRight, 100))
//	game.Tick(1.0 / 60)
//	snapshot := game.Snapshot()
//
// Game Rules:
//
// A swipe slides the piece until it meets a wall. Every path tile it passes
// over breaks. Breaking the last tile completes the level; the piece's stop
// points are then replayed in reverse before the next level starts.
package engine
