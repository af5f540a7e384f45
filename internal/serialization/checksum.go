package serialization

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeChecksum computes SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ChecksumHex returns the hex-encoded SHA-256 of data, as stored in metadata.
func ChecksumHex(data []byte) string {
	sum := ComputeChecksum(data)
	return hex.EncodeToString(sum[:])
}

// ValidateChecksum compares the checksum of data against a stored hex digest.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(data []byte, stored string) error {
	if ChecksumHex(data) != stored {
		return ErrChecksumMismatch
	}
	return nil
}
