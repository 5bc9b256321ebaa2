package service

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/jfries/batchlens/internal/domain"
)

// encodeContent turns raw document bytes into the text-safe transport
// encoding stored in the secondary store.
func encodeContent(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// hashContent returns the hex MD5 digest used to validate staged content
// against its source file.
func hashContent(raw []byte) string {
	h := md5.Sum(raw)
	return hex.EncodeToString(h[:])
}

// checkEncoded verifies a stored blob is well-formed, correctly padded
// base64 whose decoded bytes match the recorded hash. Returns ErrValidation
// describing the first problem found; the caller repairs by re-deriving the
// encoding from source bytes rather than truncating.
func checkEncoded(encoded, wantHash string, wantLength int64) error {
	if len(encoded)%4 != 0 {
		return fmt.Errorf("encoded length %d not a multiple of 4: %w", len(encoded), domain.ErrValidation)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("malformed base64: %v: %w", err, domain.ErrValidation)
	}
	if wantLength > 0 && int64(len(raw)) != wantLength {
		return fmt.Errorf("decoded length %d, recorded %d: %w", len(raw), wantLength, domain.ErrValidation)
	}
	if wantHash != "" && hashContent(raw) != wantHash {
		return fmt.Errorf("content hash mismatch: %w", domain.ErrValidation)
	}
	return nil
}
