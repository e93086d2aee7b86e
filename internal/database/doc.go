// Package database implements the movie catalog store on SQLite.
//
// It satisfies the movies.Store interface: CRUD over catalog rows plus
// paginated title search ordered by creation time descending. The database
// runs in WAL mode with a busy timeout so concurrent uploads do not trip
// over each other's writes.
package database
