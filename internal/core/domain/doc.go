// Package domain defines the core domain models for snapback.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - User: the versioned entity, identified by its email
//   - Snapshot: the single prior version captured before a mutation
//   - Errors: coded domain error definitions
package domain
