package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash reports a stored credential that does not follow the
// encoded argon2id layout this service writes.
var ErrMalformedHash = errors.New("malformed password hash")

// HashParams tunes the argon2id key derivation for administrator passwords.
// The zero value is unusable; start from DefaultHashParams.
type HashParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams is the service-wide default: 64 MiB memory, three passes.
var DefaultHashParams = HashParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash derives an argon2id digest of the password under a fresh random salt.
// The result carries its own parameters in the
// $argon2id$v=..$m=..,t=..,p=..$salt$digest layout, so stored credentials
// survive later parameter changes.
func (p HashParams) Hash(password string) (string, error) {
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	digest := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// CheckPassword re-derives the digest with the parameters embedded in the
// stored hash and compares in constant time. A mismatch is
// ErrInvalidCredentials; a hash this service could not have written is
// ErrMalformedHash.
func CheckPassword(encoded, password string) error {
	salt, digest, params, err := decodeHash(encoded)
	if err != nil {
		return err
	}
	candidate := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	if subtle.ConstantTimeCompare(digest, candidate) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func decodeHash(encoded string) ([]byte, []byte, HashParams, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, HashParams{}, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, HashParams{}, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, nil, HashParams{}, fmt.Errorf("%w: argon2 version %d", ErrMalformedHash, version)
	}

	var params HashParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return nil, nil, HashParams{}, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, HashParams{}, ErrMalformedHash
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, HashParams{}, ErrMalformedHash
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(digest))
	return salt, digest, params, nil
}
