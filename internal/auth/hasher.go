package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
)

const (
	AlgSHA512 = "sha512"
	AlgSHA256 = "sha256"

	DefaultAlgorithm = AlgSHA512
)

var ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

// Hasher produces crypt(3) strings for FTP user secrets. Every call draws a
// fresh 16 character salt, so hashing the same secret twice yields two
// different strings.
type Hasher interface {
	Hash(secret string) (string, error)
	Algorithm() string
}

type cryptHasher struct {
	name string
	c    crypt.Crypter
}

// NewHasher returns the hasher registered under name. An empty name selects
// DefaultAlgorithm. md5-crypt is refused: its 8 character salt is too short.
func NewHasher(name string) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AlgSHA512, "sha512_crypt", "$6$":
		return &cryptHasher{name: AlgSHA512, c: sha512_crypt.New()}, nil
	case AlgSHA256, "sha256_crypt", "$5$":
		return &cryptHasher{name: AlgSHA256, c: sha256_crypt.New()}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}

func (h *cryptHasher) Algorithm() string { return h.name }

func (h *cryptHasher) Hash(secret string) (string, error) {
	out, err := h.c.Generate([]byte(secret), nil)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", h.name, err)
	}
	return out, nil
}
