// Package postgres provides the PostgreSQL implementation of the job storage
// interface defined in the internal/store package. It handles database
// connections, schema migrations (embedded SQL files applied with goose),
// query execution, and mapping between domain entities and database records.
package postgres
