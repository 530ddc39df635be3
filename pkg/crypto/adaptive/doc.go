// Package adaptive seals small payloads with an AEAD cipher chosen for the
// host: AES-256-GCM where the CPU accelerates AES, ChaCha20-Poly1305
// elsewhere.
//
// Sealed output is nonce || ciphertext || tag. The associated data passed to
// Open must match the data passed to Seal.
//
//	c, err := adaptive.New(key, adaptive.CipherAuto)
//	sealed, err := c.Seal(plaintext, aad)
//	plaintext, err := c.Open(sealed, aad)
package adaptive
