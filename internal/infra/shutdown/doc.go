// Package shutdown coordinates graceful process termination.
//
// Components register hooks as they start. When SIGINT or SIGTERM arrives,
// or the run context ends, the hooks run in reverse registration order under
// a shared deadline, so the HTTP server drains before storage closes.
//
// Usage:
//
//	h := shutdown.NewHandler(15 * time.Second)
//	h.OnShutdown("storage", store.Close)
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
