// Package connection implements the client side of the socket protocol.
//
// A Session owns at most one WebSocket connection at a time and:
//   - Fetches the socket address and opens the connection
//   - Performs the init handshake, then flushes sends queued before it
//   - Correlates replies to requests by callback id (Registry)
//   - Broadcasts every inbound frame to registered handlers (EventBus)
//   - Schedules a full client restart when the connection closes
package connection
