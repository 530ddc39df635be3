package service

import (
	"fmt"

	"github.com/yndnr/snapback/pkg/crypto/adaptive"
	"github.com/yndnr/snapback/pkg/serde"
)

// WithSnapshotCipher seals snapshot data with c before it reaches the
// snapshot store. The entity kind is bound as associated data, so a
// snapshot cannot be replayed under another kind.
func WithSnapshotCipher(c adaptive.Cipher) CoordinatorOption {
	return func(o *coordinatorOptions) {
		o.cipher = c
	}
}

// sealCodec wraps codec so its output is encrypted with c. Data that fails
// to open is reported as a decode error, which rollback treats as a
// malformed snapshot.
func sealCodec[E any](codec Codec[E], c adaptive.Cipher, aad []byte) Codec[E] {
	return serde.Fuse[E, []byte](
		serde.SerializerFunc[E, []byte](func(e E) ([]byte, error) {
			plain, err := codec.Serialize(e)
			if err != nil {
				return nil, err
			}
			return c.Seal(plain, aad)
		}),
		serde.DeserializerFunc[E, []byte](func(sealed []byte) (E, error) {
			plain, err := c.Open(sealed, aad)
			if err != nil {
				var zero E
				return zero, fmt.Errorf("open sealed snapshot (%s): %w", c.Type(), err)
			}
			return codec.Deserialize(plain)
		}),
	)
}
