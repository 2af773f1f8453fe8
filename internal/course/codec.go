package course

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Artifact layout:
//
//	"PAIC" | version | nonce (24 bytes) | XChaCha20-Poly1305 ciphertext
//
// The header is authenticated as associated data. The key comes from a
// passphrase shipped with the application, so the encryption only keeps
// casual readers out of the file; it is not a security boundary.
const (
	artifactMagic   = "PAIC"
	artifactVersion = byte(1)
	headerLen       = len(artifactMagic) + 1
)

var (
	kdfSalt = []byte("pai-courseware/course.bin")
	kdfInfo = []byte("course-content-v1")
)

// Codec encrypts and decrypts course artifacts with a key derived from a
// passphrase.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives the artifact key from passphrase.
func NewCodec(passphrase string) (*Codec, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("course key is empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(passphrase), kdfSalt, kdfInfo)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive course key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Seal encrypts plaintext into a complete artifact.
func (c *Codec) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, headerLen+len(nonce)+len(plaintext)+c.aead.Overhead())
	out = append(out, artifactMagic...)
	out = append(out, artifactVersion)
	header := out[:headerLen]
	out = append(out, nonce...)
	return c.aead.Seal(out, nonce, plaintext, header), nil
}

// Open verifies and decrypts an artifact produced by Seal.
func (c *Codec) Open(data []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(data) < headerLen+nonceSize+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrCorrupt, len(data))
	}
	if string(data[:len(artifactMagic)]) != artifactMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := data[len(artifactMagic)]; v != artifactVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}

	header := data[:headerLen]
	nonce := data[headerLen : headerLen+nonceSize]
	plaintext, err := c.aead.Open(nil, nonce, data[headerLen+nonceSize:], header)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// Encode serializes a course and seals it.
func (c *Codec) Encode(course Course) ([]byte, error) {
	payload, err := cbor.Marshal(course)
	if err != nil {
		return nil, fmt.Errorf("encode course: %w", err)
	}
	return c.Seal(payload)
}

// Decode opens an artifact and deserializes the course inside.
func (c *Codec) Decode(data []byte) (Course, error) {
	payload, err := c.Open(data)
	if err != nil {
		return Course{}, err
	}
	var course Course
	if err := cbor.Unmarshal(payload, &course); err != nil {
		return Course{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return course, nil
}
