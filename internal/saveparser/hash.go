package saveparser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// hashChunkSize is the buffer size used when streaming a file through the
// digest, so arbitrarily large archives never load fully into memory.
const hashChunkSize = 64 * 1024

// HashFile computes the SHA-256 digest of the file at path and returns it as
// a lowercase hex string.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hashing %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	digest := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(digest, file, buf); err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}
