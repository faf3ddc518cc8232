package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
)

// Workflow payloads carry customer names, emails and delivery addresses,
// so everything that crosses the Temporal server is sealed with AES-GCM.
// The key id travels in payload metadata, which lets old histories decode
// after a key rotation as long as the retired key stays registered.

const (
	// MetadataEncodingEncrypted marks a payload as sealed by this codec
	MetadataEncodingEncrypted = "binary/encrypted"

	// MetadataEncryptionKeyID names the key a payload was sealed with
	MetadataEncryptionKeyID = "encryption-key-id"
)

// EncryptionCodec implements converter.PayloadCodec over a set of named
// AES-256 keys. New payloads are sealed with the active key; decode
// accepts any registered key.
type EncryptionCodec struct {
	activeKeyID string
	keys        map[string][]byte
}

// NewEncryptionCodec creates a codec sealing with the named active key.
// Every key must be 32 bytes.
func NewEncryptionCodec(activeKeyID string, keys map[string][]byte) (*EncryptionCodec, error) {
	if _, ok := keys[activeKeyID]; !ok {
		return nil, fmt.Errorf("active key %q is not among the provided keys", activeKeyID)
	}
	for id, key := range keys {
		if len(key) != 32 {
			return nil, fmt.Errorf("key %q must be 32 bytes for AES-256, got %d bytes", id, len(key))
		}
	}

	return &EncryptionCodec{
		activeKeyID: activeKeyID,
		keys:        keys,
	}, nil
}

// Encode seals the provided payloads with the active key
func (e *EncryptionCodec) Encode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))

	for i, payload := range payloads {
		// Already sealed payloads pass through untouched
		if payload.Metadata != nil && string(payload.Metadata["encoding"]) == MetadataEncodingEncrypted {
			result[i] = payload
			continue
		}

		origBytes, err := payload.Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}

		sealed, err := e.seal(origBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt payload: %w", err)
		}

		result[i] = &commonpb.Payload{
			Metadata: map[string][]byte{
				"encoding":              []byte(MetadataEncodingEncrypted),
				MetadataEncryptionKeyID: []byte(e.activeKeyID),
			},
			Data: sealed,
		}
	}

	return result, nil
}

// Decode opens the provided payloads using the key named in their
// metadata
func (e *EncryptionCodec) Decode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))

	for i, payload := range payloads {
		if payload.Metadata == nil || string(payload.Metadata["encoding"]) != MetadataEncodingEncrypted {
			result[i] = payload
			continue
		}

		keyID := string(payload.Metadata[MetadataEncryptionKeyID])
		key, ok := e.keys[keyID]
		if !ok {
			return nil, fmt.Errorf("no key registered for id %q", keyID)
		}

		opened, err := open(key, payload.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt payload: %w", err)
		}

		result[i] = &commonpb.Payload{}
		if err := result[i].Unmarshal(opened); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decrypted payload: %w", err)
		}
	}

	return result, nil
}

func (e *EncryptionCodec) seal(plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(e.keys[e.activeKeyID])
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func open(key, ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// NewEncryptionDataConverter wraps the default data converter with the
// encryption codec
func NewEncryptionDataConverter(activeKeyID string, keys map[string][]byte) (converter.DataConverter, error) {
	codec, err := NewEncryptionCodec(activeKeyID, keys)
	if err != nil {
		return nil, err
	}

	return converter.NewCodecDataConverter(
		converter.GetDefaultDataConverter(),
		codec,
	), nil
}
