package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Digest is the 256-bit content fingerprint of a debt.
type Digest [sha256.Size]byte

// DebtDigest fingerprints the fields that define a debt.
//
// The hashed key is the plain concatenation
//
//	debtor + target + amount.String() + memo
//
// with no separators, so it stays compatible with digests recorded by the
// transfer authority's own tooling. Changing any field changes the digest.
func DebtDigest(debtor, target Name, amount Asset, memo string) Digest {
	key := string(debtor) + string(target) + amount.String() + memo
	return sha256.Sum256([]byte(key))
}

// String returns the lower-case hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalText encodes the digest as hex.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a hex digest.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDigest decodes a 64-character hex string.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("parse digest: %w", err)
	}
	if len(raw) != len(d) {
		return d, fmt.Errorf("parse digest: want %d bytes, got %d", len(d), len(raw))
	}
	copy(d[:], raw)
	return d, nil
}
