package badgerstore

import (
	"encoding/binary"

	"github.com/yndnr/snapback/internal/core/domain"
)

var (
	userPrefix     = []byte("u/")
	snapshotPrefix = []byte("s/")
)

func userKey(identity string) []byte {
	key := make([]byte, 0, len(userPrefix)+len(identity))
	key = append(key, userPrefix...)
	return append(key, identity...)
}

// snapshotKey length-prefixes the kind so that no (kind, id) pair can
// encode to the same bytes as another.
func snapshotKey(k domain.SnapshotKey) []byte {
	key := make([]byte, 0, len(snapshotPrefix)+binary.MaxVarintLen64+len(k.Kind)+len(k.EntityID))
	key = append(key, snapshotPrefix...)
	key = binary.AppendUvarint(key, uint64(len(k.Kind)))
	key = append(key, k.Kind...)
	return append(key, k.EntityID...)
}
