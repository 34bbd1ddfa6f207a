// Package safeio guards the module's contact points with untrusted input:
// path traversal checks for manifest-relative file references, name
// validation for stored baselines, and bounded reads for documents
// arriving over HTTP.
package safeio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MaxDocumentBytes is the default cap for a single document read (16 MiB).
const MaxDocumentBytes int64 = 16 << 20

// ErrPathTraversal is returned when a user-supplied path escapes its base.
var ErrPathTraversal = errors.New("safeio: path traversal detected")

// SafePath validates that joining base and userInput does not escape base.
// Returns the cleaned joined path or ErrPathTraversal.
func SafePath(base, userInput string) (string, error) {
	if strings.Contains(userInput, "..") {
		return "", ErrPathTraversal
	}
	// Clean both and verify the result stays under base.
	cleaned := filepath.Join(base, filepath.Clean("/"+userInput))
	if !strings.HasPrefix(cleaned, filepath.Clean(base)+string(filepath.Separator)) &&
		cleaned != filepath.Clean(base) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

// ValidateName rejects names unsuitable for baseline records or suite case
// labels: these end up in SQL rows, file names, and URL path segments.
// Allows alphanumeric, underscore, hyphen, and dot.
func ValidateName(s string) error {
	if s == "" {
		return fmt.Errorf("safeio: name must not be empty")
	}
	if len(s) > 256 {
		return fmt.Errorf("safeio: name too long (max 256)")
	}
	for _, r := range s {
		if !isNameChar(r) {
			return fmt.Errorf("safeio: invalid character %q in name", r)
		}
	}
	return nil
}

// LimitedReadAll reads at most maxBytes from r and errors when the source
// holds more.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	lr := io.LimitReader(r, maxBytes+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("safeio: document exceeds %d bytes", maxBytes)
	}
	return data, nil
}

func isNameChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.'
}
