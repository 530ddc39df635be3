// Package badgerstore is the Badger backed storage engine for snapback.
//
// A unit of work is one Badger read-write transaction, so the snapshot
// written before an update and the update itself commit together or not at
// all. The store runs in Badger's in-memory mode unless a directory is
// configured.
//
// Key layout:
//
//	u/<identity>                       current entity (JSON)
//	s/<uvarint len(kind)><kind><id>    pending snapshot (JSON)
package badgerstore
