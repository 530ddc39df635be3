// Package memory provides the in-memory storage backend for snapback.
//
// Users and snapshots live in separate sharded maps. Store ties them
// together as a unit of work: a failing unit has its writes undone, so a
// snapshot is never left behind without the entity write it belongs to.
// Callers serialize writers per identity.
//
// All values are cloned on the way in and out.
package memory
