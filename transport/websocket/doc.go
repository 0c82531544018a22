// Package websocket pushes puzzle updates and search progress to browsers.
//
// The package uses a hub-and-spoke model where a central Hub tracks clients
// per session. Each connection runs a read pump and a write pump; the hub's
// Run loop delivers queued broadcasts.
//
// Message Protocol:
//
// Every frame is one JSON Message:
//   - state_update: {"session_id", "event", "puzzle"} after a move or reset
//   - search_progress: {"session_id", "event", "data": LevelStats} per depth
//   - search_done: {"session_id", "event", "data": summary} when a search ends
//
// Incoming frames are ignored.
//
// Session Integration:
//
// Clients pick a session with the query parameter (?session=abc12345).
// Broadcasts reach only clients of that session. Broadcasts for sessions
// without clients are dropped, and a full queue drops messages instead of
// blocking, so a running search is never slowed by a slow browser.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastToSession(id, view)
//	hub.BroadcastProgress(id, level)
package websocket
