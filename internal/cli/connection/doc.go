// Package connection talks to a snapback server over HTTP.
//
// Every server response uses the same JSON envelope. The client unwraps the
// data field on success and turns error envelopes into *APIError.
package connection
