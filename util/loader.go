package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LoadImageFile reads a comparison operand from disk.
//
// Arguments:
// - path: Path to a .png, .jpg, .jpeg, or .webp file.
//
// Returns:
// - []byte: The raw encoded image bytes.
// - error: Error when the extension is unsupported or the read fails.
func LoadImageFile(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		return nil, errors.Errorf("unsupported image extension %q", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return data, nil
}
