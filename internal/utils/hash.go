package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SHA256Hex computes a SHA-256 digest over the given byte slice and returns
// it hex-encoded.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashValue computes a deterministic content hash of an arbitrary value by
// hashing its canonical JSON encoding. encoding/json sorts map keys and
// emits struct fields in declaration order, so equal values always produce
// equal hashes.
//
// Parameters:
//
//	v - any JSON-serializable value
//
// Returns:
//
//	string - hex-encoded SHA-256 digest of the canonical encoding
//	error  - non-nil if the value cannot be serialized
func HashValue(v any) (string, error) {
	if v == nil {
		return "", nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash value: %w", err)
	}

	return SHA256Hex(data), nil
}

// FieldHashes computes a per-field content hash of a struct or map value.
//
// The value is serialized to JSON, split into its top-level fields, and each
// field's canonical encoding is hashed independently. Two sides of a sync
// conflict can then be compared field by field without interpreting payload
// internals.
//
// Fields absent from the encoding (omitempty zero values) are absent from
// the result.
//
// Parameters:
//
//	v - any value whose JSON encoding is a JSON object
//
// Returns:
//
//	map[string]string - field name → hex-encoded SHA-256 of the field value
//	error             - non-nil if v does not encode to a JSON object
func FieldHashes(v any) (map[string]string, error) {
	if v == nil {
		return map[string]string{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("field hashes: %w", err)
	}

	var fields map[string]json.RawMessage
	if err = json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("field hashes: value is not an object: %w", err)
	}

	hashes := make(map[string]string, len(fields))
	for name, raw := range fields {
		hashes[name] = SHA256Hex(raw)
	}

	return hashes, nil
}
