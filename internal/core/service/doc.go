// Package service provides the snapback use cases.
//
// Services hold the business rules and orchestrate the stores through the
// interfaces declared here, so storage backends are injected at startup.
//
// This package contains:
//
//   - Coordinator: snapshot-before-write and single-use rollback for any
//     entity kind, serialized per identity
//   - UserService: the user-facing operations built on a Coordinator
package service
