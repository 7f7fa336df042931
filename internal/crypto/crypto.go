package crypto

import (
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the length of a chunk digest in bytes
const DigestSize = blake2b.Size256

// Digest identifies chunk contents
type Digest [DigestSize]byte

// Hash returns the BLAKE2b-256 digest of data
func Hash(data []byte) Digest {
	return blake2b.Sum256(data)
}

// NewHasher returns a streaming BLAKE2b-256 hash, used for whole-input digests
func NewHasher() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only reachable with an oversized key
		panic(err)
	}
	return h
}

// String returns the hex encoding of d
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 8 bytes of d in hex
func (d Digest) Short() string {
	return hex.EncodeToString(d[:8])
}

// MarshalText encodes d as hex
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a hex digest
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDigest decodes a hex digest
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("invalid digest %q: %w", s, err)
	}
	if len(b) != DigestSize {
		return d, fmt.Errorf("invalid digest %q: want %d bytes, got %d", s, DigestSize, len(b))
	}
	copy(d[:], b)
	return d, nil
}
