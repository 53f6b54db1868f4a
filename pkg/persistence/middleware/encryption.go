package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/catena/pkg/ports"
)

// EncryptedPrefix marks a sealed note in the underlying store.
const EncryptedPrefix = "enc:v1:"

// ErrInvalidKey is returned for keys that are not 32 bytes long.
var ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new notes.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are old keys tried when decryption with ActiveKey fails.
	// This enables key rotation without rewriting stored notes.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.NoteStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals every note with
// AES-GCM before it reaches the underlying store.
//
// Searching happens on the decrypted notes, so Search reads the whole store.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrInvalidKey
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, ErrInvalidKey
		}
	}
	return func(next ports.NoteStore) ports.NoteStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) WriteNote(ctx context.Context, note string) error {
	ciphertext, err := encrypt([]byte(note), m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt note: %w", err)
	}
	return m.next.WriteNote(ctx, EncryptedPrefix+base64.StdEncoding.EncodeToString(ciphertext))
}

func (m *encryptionMiddleware) Notes(ctx context.Context) ([]string, error) {
	sealed, err := m.next.Notes(ctx)
	if err != nil {
		return nil, err
	}
	notes := make([]string, len(sealed))
	for i, s := range sealed {
		if notes[i], err = m.open(s); err != nil {
			return nil, fmt.Errorf("note %d: %w", i, err)
		}
	}
	return notes, nil
}

func (m *encryptionMiddleware) Search(ctx context.Context, query string) ([]string, error) {
	notes, err := m.Notes(ctx)
	if err != nil {
		return nil, err
	}
	return ports.FilterNotes(notes, query), nil
}

func (m *encryptionMiddleware) Clear(ctx context.Context) error {
	return m.next.Clear(ctx)
}

func (m *encryptionMiddleware) open(sealed string) (string, error) {
	encoded, ok := strings.CutPrefix(sealed, EncryptedPrefix)
	if !ok {
		// Fail closed: a plain note means the store was written without encryption.
		return "", errors.New("note is not encrypted")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
