// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request against
// the api package, and the JSON answer is rendered as plain text an agent can
// read (a grid, the piece position, the events of the call).
//
// Tools:
//   - create_session, get_session, list_sessions
//   - game_state, history
//   - move, swipe, advance_time, skip_replay
//   - pause, select_level, replace_piece, reset_progress
//   - list_levels, solve_level, game_instructions
//
// The simulation only runs when time advances, so move advances the clock
// long enough for the slide to settle unless the caller passes settle=false.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// The HTTP server also mounts the same tools on POST /mcp.
package mcp
