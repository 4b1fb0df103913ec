// Package database provides the PostgreSQL connection pool used by the
// postgres storage backend.
package database
