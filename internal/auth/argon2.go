// Package auth covers both credential kinds the API accepts: terminal
// keys (argon2id-hashed, bearer-style) and user session JWTs minted by
// the external identity provider.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (OWASP 2024 recommended minimum).
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

var (
	// ErrInvalidHash indicates the stored hash is not a PHC argon2id string.
	ErrInvalidHash = errors.New("invalid hash format")
	// ErrIncompatibleVersion indicates the hash was made by an unsupported
	// argon2 version.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// argon2Params are the cost parameters recovered from a PHC string. A key
// is always verified with the parameters it was hashed under, so old
// hashes keep verifying after the constants above change.
type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	hash    []byte
}

// HashTerminalKey hashes a terminal key's secret with argon2id and
// returns the PHC-formatted string stored in api_keys.key_hash.
func HashTerminalKey(secret string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(secret), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyTerminalKey reports whether the presented secret matches the
// stored hash. The comparison is constant time.
func VerifyTerminalKey(secret, encodedHash string) (bool, error) {
	params, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(secret), params.salt,
		params.time, params.memory, params.threads, uint32(len(params.hash)))

	return subtle.ConstantTimeCompare(computed, params.hash) == 1, nil
}

// parsePHC decodes a $argon2id$... PHC string into its parameters.
func parsePHC(encoded string) (*argon2Params, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return nil, ErrIncompatibleVersion
	}

	var p argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, ErrInvalidHash
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, ErrInvalidHash
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, ErrInvalidHash
	}
	return &p, nil
}

// Fingerprint derives a short stable digest of a terminal key for redis
// cache keys, so the plaintext never appears in the cache keyspace. Not
// a substitute for the argon2 hash.
func Fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}
