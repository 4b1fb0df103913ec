// Package metrics provides Prometheus metrics for monitoring the socket client.
//
// Key metrics:
//   - Frames sent, received and queued before the connection opened
//   - Malformed frames and replies with no pending callback
//   - Server errors and scheduled restarts
//   - Pending callbacks and connection state
package metrics
