// Package storage selects and opens the storage engine for snapback.
//
// Two engines are available:
//
//   - memory: sharded concurrent maps, the default
//   - badger: Badger transactions, in-memory unless a directory is set
//
// Both implement service.UnitOfWork for users and pass the same
// behavioural suite.
package storage
