// Package ws streams fleet snapshots to websocket clients.
//
// A Hub sends the current snapshot as soon as a client connects, then again
// on every tick of its broadcast interval. Messages have the shape:
//
//	{"event": "snapshot", "data": { /* GET /api/v1/snapshot */ }}
//
// The stream is read-only; anything a client sends is discarded. The server
// mounts the hub at /ws/stream.
package ws
