package util

import (
	"errors"
	"strings"
)

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// SanitizeObjectKey validates a caller-supplied storage key. Forward slashes
// are allowed as segment separators; traversal and absolute keys are not.
func SanitizeObjectKey(key string) (string, error) {
	s := strings.Trim(strings.TrimSpace(key), "/")
	if s == "" || strings.Contains(s, "..") || strings.Contains(s, "\\") {
		return "", errors.New("invalid object key")
	}
	for _, seg := range strings.Split(s, "/") {
		if strings.TrimSpace(seg) == "" {
			return "", errors.New("invalid object key")
		}
	}
	return s, nil
}
