package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// FunctionID creates a deterministic id for a function based on file path,
// name and declaration line. The line disambiguates overloads and closures
// that share a name within one file.
func FunctionID(filePath, name string, line int) string {
	input := fmt.Sprintf("%s:%s:%d", filePath, name, line)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// ContentHash returns the hash of raw file or code-block content.
func ContentHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
