// Package api exposes the game service over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"profile": "alice"} optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Summaries of several sessions (?sessionIds=a,b)
//   - GET /api/sessions/{id} - Session info with its current snapshot
//   - DELETE /api/sessions/{id} - Tear a session down
//
// Play:
//   - GET /api/sessions/{id}/state - Current snapshot
//   - GET /api/sessions/{id}/history - Stop positions and paged events
//   - POST /api/sessions/{id}/swipe - {"start":{"x":0,"y":0},"end":{"x":80,"y":0}}
//   - POST /api/sessions/{id}/move - {"direction":"up"}
//   - POST /api/sessions/{id}/skip - Fast-forward the replay
//   - POST /api/sessions/{id}/pause - {"paused":true}
//   - POST /api/sessions/{id}/panel - {"open":true}
//   - POST /api/sessions/{id}/advance - {"dt":0.016,"steps":60} or {"seconds":2}
//   - POST /api/sessions/{id}/level - {"index":2}
//   - POST /api/sessions/{id}/replace-piece
//   - POST /api/sessions/{id}/reset-progress
//
// Levels:
//   - GET /api/levels - Level pack in play order
//   - GET /api/levels/{name} - One level file
//   - GET /api/levels/{name}/solve - Shortest slide sequence clearing the level
//
// Other:
//   - GET /ws?session={id} - Live events and state for one session
//   - GET /metrics, /api/metrics - Prometheus exposition
//   - GET /health
//
// Errors are returned as {"error": "..."} with 404 for unknown sessions or
// levels, 400 for malformed input, 409 when the level-complete sequence
// blocks the request and 410 for a session torn down mid-call.
package api
