// Package storage implements the local key/value store the client keeps its
// login in.
//
// A Store has two scopes. The session scope lives in memory for the lifetime
// of the process; the persistent scope is backed by a JSON file, SQLite or
// PostgreSQL. Reads check the session scope first. Values are stored as JSON
// and writing a nil value removes the key.
package storage
