// Package handler implements the snapback HTTP API.
//
// Every JSON response uses the Response envelope. Mutating user endpoints
// answer with the full user listing after the change, so a client can see
// the effect of an update or rollback in one round trip.
//
//	GET  /health                    liveness
//	GET  /ready                     storage readiness
//	GET  /users                     list users
//	POST /users                     create a user (idempotent)
//	PUT  /users/{email}             update a user's name
//	POST /users/{email}/rollback    restore the version before the last update
//	GET  /admin/v1/status           counts, engine and build info
package handler
