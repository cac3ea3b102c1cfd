package utils

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// decodable lists the extensions the image loader can read
var decodable = []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp"}

// EnsureDir creates dir and its parents; an empty dir is the working directory
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// GetFileExtension returns the lowercase extension without the dot
func GetFileExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// IsImageFile reports whether filename has an extension the loader decodes
func IsImageFile(filename string) bool {
	return slices.Contains(decodable, GetFileExtension(filename))
}

// IsURL reports whether source is an http(s) URL
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// FileExists reports whether a regular file exists at filename
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// ResolvePath resolves rel against the directory containing base. Absolute
// paths and URLs are returned unchanged.
func ResolvePath(base, rel string) string {
	if rel == "" || filepath.IsAbs(rel) || IsURL(rel) {
		return rel
	}
	return filepath.Join(filepath.Dir(base), rel)
}
