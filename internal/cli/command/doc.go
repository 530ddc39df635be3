// Package command defines the snapback-cli commands.
//
// Commands talk to a running snapback-server over its HTTP API and render
// results with the formatter chosen by --output. All output goes to the
// app's Writer so commands can be driven from tests.
package command
