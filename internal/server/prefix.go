package server

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	prefixLen      = 8
	prefixAlphabet = "abcdefghijklmnopqrstuvwxyz234567"
)

// ValidPrefix reports whether p looks like a generated path prefix.
func ValidPrefix(p string) bool {
	if len(p) != prefixLen {
		return false
	}
	for _, r := range p {
		if !strings.ContainsRune(prefixAlphabet, r) {
			return false
		}
	}
	return true
}

// NewPrefix returns 8 lowercase base32 characters from 5 random bytes.
func NewPrefix() (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return strings.ToLower(base32.StdEncoding.EncodeToString(b[:])), nil
}

// LoadPrefix reads the path prefix from file. A missing or malformed file
// is replaced with a fresh prefix.
func LoadPrefix(file string) (string, error) {
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if p := strings.TrimSpace(string(data)); ValidPrefix(p) {
			return p, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("read prefix: %w", err)
	}

	p, err := NewPrefix()
	if err != nil {
		return "", fmt.Errorf("generate prefix: %w", err)
	}
	if err := os.WriteFile(file, []byte(p), 0o644); err != nil {
		return "", fmt.Errorf("write prefix: %w", err)
	}
	return p, nil
}
