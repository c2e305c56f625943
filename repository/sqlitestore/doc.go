// Package sqlitestore provides an embedded SQLite implementation of repository.CounterStore.
//
// It is meant for single-replica deployments and local development: counters live in one
// database file on the local disk, so two processes on different hosts would each hand out
// their own numbers. Multi-replica deployments must use the PostgreSQL store.
//
// Every connection is opened in WAL mode with synchronous=FULL, so a committed increment
// survives power loss. Increments run in BEGIN IMMEDIATE transactions; SQLite allows one
// writer at a time, which serializes all increments (including those for unrelated pairs)
// for the few microseconds each one takes.
//
// The store does not take part in PostgreSQL transactions. A caller that allocates a code
// and then fails to persist its record leaves that number consumed.
package sqlitestore
