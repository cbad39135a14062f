// Package websocket streams live session activity to browser and tool
// watchers.
//
// A single Hub owns every connection. Clients attach to one session with
// /ws?session=<id> and receive JSON frames:
//
//	{"session_id":"a1b2","kind":"event","event":{"type":"tile_broken",...}}
//	{"session_id":"a1b2","kind":"state","state":{...snapshot...}}
//
// Event frames come from GameService.Subscribe, so every simulation event
// of the session reaches its watchers in sequence order. State frames are
// pushed by the REST layer after mutating calls.
//
// Usage:
//
//	hub := websocket.NewHub(log)
//	go hub.Run(ctx)
//	unsubscribe := gameService.Subscribe(hub.OnEvent)
//	defer unsubscribe()
//
// OnEvent never blocks: when the hub falls behind, frames are dropped and
// counted rather than stalling the simulation. A client whose own queue is
// full is disconnected.
package websocket
