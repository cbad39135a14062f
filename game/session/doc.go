// Package session provides play sessions and persisted progress for the
// tile-slide game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//   - Persisted integer key-value stores (memory, JSON file, BadgerDB, Redis)
//   - Per-profile level progress on top of any store
//
// Core Types:
//
// Manager registers service.Session values, each owning one engine.Game.
// Store is the persisted key-value contract used for progress. Progress
// scopes a Store to one player profile and implements engine.ProgressStore.
//
// Usage:
//
//	store, err := session.OpenStore(session.StoreConfig{Kind: "badger", Path: "data/progress"}, log)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	progress := session.NewProgress(store, "alice", log)
//	progress.SaveProgress(3)
//
//	manager := session.NewManager(log)
//	sess, err := manager.Create("", "alice", game)
//
// Concurrency:
//
// Manager and every Store are safe for concurrent use. A session's game is
// not; callers lock the session around every game call.
package session
