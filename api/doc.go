// Package api provides HTTP REST API handlers for the stone sliding puzzle.
//
// Endpoints:
//
// Levels:
//   - GET  /api/levels              - List loadable levels
//   - POST /api/levels              - Save a level (JSON body, name required)
//   - GET  /api/levels/{name}       - Get a level definition
//   - POST /api/levels/{name}/solve - Solve a level from its initial layout
//
// Sessions:
//   - POST   /api/sessions           - Create a session, body {"level": "corridor"}
//   - GET    /api/sessions           - List sessions (sort=created|accessed, order=asc|desc, limit=N)
//   - GET    /api/sessions/{id}      - Get a session
//   - DELETE /api/sessions/{id}      - Delete a session
//   - GET    /api/sessions/{id}/puzzle - Get the current puzzle view
//   - POST   /api/sessions/{id}/move - Slide a stone, body {"stone": "A", "direction": "up", "reset": false}
//   - POST   /api/sessions/{id}/reset - Restore the initial layout
//   - POST   /api/sessions/{id}/solve - Solve from the current position
//
// WebSocket:
//   - GET /ws?session={id} - Puzzle updates and search progress for a session
//
// Errors are returned as JSON objects with an "error" field. A search that
// exhausts its frontier answers 422 with "status": "exhausted"; a search that
// hits its deadline answers 504.
package api
