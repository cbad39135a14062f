// Package service provides the business logic layer for the tile-slide game.
//
// The service package implements:
//   - Multi-session game management
//   - Gesture, move and control processing
//   - Simulated time advancement and a shared tick for live play
//   - Event capture per call, per session and for subscribers
//   - A simulated interstitial ad that pauses the game
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionManager stores sessions. LevelManager supplies the level pack.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the engine. Each session owns one engine.Game built over the whole level
// pack, with its own pause bus, camera, HUD, ad simulator and audio player.
// The engine is single-threaded, so every call locks the session for its
// duration. TickAll is driven by the server's fixed-rate loop; Advance lets
// tests and agents step time deterministically instead.
//
// Usage:
//
//	svc := service.NewGameService(session.NewManager(log), levels, service.Config{
//		Tuning:   tuning,
//		Progress: func(profile string) engine.ProgressStore { return session.NewProgress(store, profile, log) },
//	})
//
//	info, err := svc.CreateSession(ctx, "alice")
//	res, err := svc.Move(ctx, info.ID, "right")
//	adv, err := svc.Advance(ctx, info.ID, 1.0/60, 120)
package service
