// Command snapback-server serves the snapback user API.
//
// It keeps the current version of every user together with the version
// captured before the most recent update, so a single rollback can undo the
// last change. Configuration is read from an optional YAML file and from
// SNAPBACK_ environment variables; log.level is re-applied when the file
// changes.
//
// Usage:
//
//	snapback-server -config /etc/snapback/server.yaml
//	snapback-server -version
package main
