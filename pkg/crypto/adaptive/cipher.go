package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the only accepted key length.
const KeySize = 32

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAuto     CipherType = "auto"
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

var (
	// ErrKeySize is returned for keys that are not KeySize bytes.
	ErrKeySize = fmt.Errorf("adaptive: key must be %d bytes", KeySize)

	// ErrShortCiphertext is returned when sealed data cannot hold a nonce.
	ErrShortCiphertext = errors.New("adaptive: ciphertext too short")
)

// Cipher provides authenticated encryption.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Seal encrypts plaintext and binds it to additionalData.
	Seal(plaintext, additionalData []byte) ([]byte, error)

	// Open authenticates and decrypts data produced by Seal.
	Open(sealed, additionalData []byte) ([]byte, error)

	// Overhead is the number of bytes Seal adds to the plaintext.
	Overhead() int
}

// ParseType maps a config value to a CipherType. The empty string is auto.
func ParseType(s string) (CipherType, error) {
	switch t := CipherType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", CipherAuto:
		return CipherAuto, nil
	case CipherAESGCM, CipherChaCha20:
		return t, nil
	default:
		return "", fmt.Errorf("adaptive: unknown cipher type %q", s)
	}
}

// ParseKey decodes a hex or standard base64 key and checks its length.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if key, err := hex.DecodeString(s); err == nil {
		return checkKey(key)
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.New("adaptive: key is neither hex nor base64")
	}
	return checkKey(key)
}

func checkKey(key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	return key, nil
}

// New creates a cipher of the given type. CipherAuto picks AES-GCM on
// architectures with AES instructions and ChaCha20-Poly1305 otherwise.
func New(key []byte, t CipherType) (Cipher, error) {
	if _, err := checkKey(key); err != nil {
		return nil, err
	}
	if t == CipherAuto || t == "" {
		t = preferred()
	}

	switch t {
	case CipherAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		a, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return &aead{typ: t, aead: a}, nil

	case CipherChaCha20:
		a, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, err
		}
		return &aead{typ: t, aead: a}, nil

	default:
		return nil, fmt.Errorf("adaptive: unknown cipher type %q", t)
	}
}

// preferred reports the faster cipher for this architecture. Go's crypto/aes
// uses AES-NI on amd64 and the crypto extensions on arm64.
func preferred() CipherType {
	switch runtime.GOARCH {
	case "amd64", "arm64", "s390x", "ppc64le":
		return CipherAESGCM
	default:
		return CipherChaCha20
	}
}

type aead struct {
	typ  CipherType
	aead cipher.AEAD
}

func (c *aead) Type() CipherType { return c.typ }

func (c *aead) Overhead() int { return c.aead.NonceSize() + c.aead.Overhead() }

func (c *aead) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aead) Open(sealed, additionalData []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(sealed) < n+c.aead.Overhead() {
		return nil, ErrShortCiphertext
	}
	return c.aead.Open(nil, sealed[:n], sealed[n:], additionalData)
}
