// Package api provides the HTTP client for the rcon-web server.
//
// The only endpoint the socket client needs is the socket config:
//
//	GET /wsconfig -> {"port": 4327, "url": null, "sslUrl": "wss://rcon.example.com/ws"}
//
// ConfigLoader wraps it so the parameters are fetched once per process.
package api
