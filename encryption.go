package querycache

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/cockroachdb/errors"
)

var (
	encryptionMagic = []byte("QCE1")

	ErrEncryptionKey = errors.New("querycache: encryption key must be 16, 24, or 32 bytes")
	ErrDecryptFailed = errors.New("querycache: decrypt failed")
)

type aeadCodec struct {
	inner Codec
	aead  cipher.AEAD
}

// Encrypted wraps inner so entries are sealed with AES-GCM before they reach
// the store. An empty key returns inner unchanged. Entries written without
// encryption still decode.
func Encrypted(inner Codec, key []byte) (Codec, error) {
	if inner == nil {
		inner = JSONCodec()
	}
	if len(key) == 0 {
		return inner, nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrEncryptionKey
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "init gcm")
	}
	return aeadCodec{inner: inner, aead: aead}, nil
}

func (c aeadCodec) Name() string { return c.inner.Name() + "+aes" }

// Encode layout: magic, nonce length, nonce, ciphertext.
func (c aeadCodec) Encode(r Result) ([]byte, error) {
	plain, err := c.inner.Encode(r)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "read nonce")
	}
	buf := make([]byte, 0, len(encryptionMagic)+1+len(nonce)+len(plain)+c.aead.Overhead())
	buf = append(buf, encryptionMagic...)
	buf = append(buf, byte(len(nonce)))
	buf = append(buf, nonce...)
	return c.aead.Seal(buf, nonce, plain, nil), nil
}

func (c aeadCodec) Decode(b []byte) (Result, error) {
	if !bytes.HasPrefix(b, encryptionMagic) {
		return c.inner.Decode(b)
	}
	offset := len(encryptionMagic)
	if len(b) < offset+1 {
		return Result{}, ErrDecryptFailed
	}
	nonceLen := int(b[offset])
	offset++
	if nonceLen != c.aead.NonceSize() || len(b) < offset+nonceLen {
		return Result{}, ErrDecryptFailed
	}
	nonce := b[offset : offset+nonceLen]
	plain, err := c.aead.Open(nil, nonce, b[offset+nonceLen:], nil)
	if err != nil {
		return Result{}, ErrDecryptFailed
	}
	return c.inner.Decode(plain)
}
