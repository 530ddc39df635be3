// Package httpserver provides the HTTP server for snapback.
//
// The router wraps the API handlers in the middleware chain
//
//	Recover -> CORS -> RequestID -> RateLimit -> Trace -> Audit -> handler
//
// and mounts the Prometheus endpoint beside the API.
package httpserver
