// Package session provides session management for the stone slide puzzle.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Session ID generation
//   - File persistence of sessions
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns its own puzzle engine, so moves in one session
// never affect another.
//
// Session Identifiers:
//
// Generated IDs are the first eight hex characters of a random UUID. Lookups
// are case-insensitive. IDs must be usable as file names.
//
// Persistence:
//
// FilePersistence writes one JSON file per session holding the level, the
// timestamps and the moves played so far. Loading replays those moves from
// the level's initial state, so a stored session is always a reachable one.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", levelManager)
//	manager := session.NewManager(
//		session.WithPersistence(persistence),
//		session.WithLogger(logger),
//	)
//
//	sess, err := manager.Create("", "corridor", level)
//	sess, err = manager.Get(sess.ID)
//
//	// Drop sessions idle for a day
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
package session
