// Package hasher implements salted, memory-hard password hashing.
package hasher

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/authd/internal/model"
)

const (
	saltLen = 16
	keyLen  = 32

	// Upper bounds for cost parameters read back from stored digests.
	maxMemKiB = 4 * 1024 * 1024
	maxTime   = 64
)

// Params holds argon2id cost parameters.
type Params struct {
	Time    uint32
	MemKiB  uint32
	Threads uint8
}

// DefaultParams are the OWASP recommended argon2id parameters.
var DefaultParams = Params{Time: 1, MemKiB: 64 * 1024, Threads: 4}

var _ model.PasswordHasher = (*Argon2id)(nil)

// Argon2id hashes passwords with argon2id and encodes them in PHC string format:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
type Argon2id struct {
	params  Params
	entropy io.Reader
}

// NewArgon2id creates a hasher using the given parameters. Zero fields fall
// back to DefaultParams.
func NewArgon2id(params Params) *Argon2id {
	if params.Time == 0 {
		params.Time = DefaultParams.Time
	}
	if params.MemKiB == 0 {
		params.MemKiB = DefaultParams.MemKiB
	}
	if params.Threads == 0 {
		params.Threads = DefaultParams.Threads
	}
	return &Argon2id{params: params, entropy: rand.Reader}
}

// Params returns the parameters new digests are produced with.
func (h *Argon2id) Params() Params {
	return h.params
}

// Hash produces a digest with a fresh random salt embedded in it.
// It fails only when the entropy source cannot supply a salt.
func (h *Argon2id) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(h.entropy, salt); err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").
			With("operation", "read salt").
			With("requested_bytes", saltLen).
			Wrap(errors.Join(model.ErrHash, err))
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemKiB, h.params.Threads, keyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemKiB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks the password against an argon2id or legacy bcrypt digest.
// It returns (false, nil) on mismatch and an error for malformed digests.
func (h *Argon2id) Verify(password, digest string) (bool, error) {
	if isBcrypt(digest) {
		err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, oops.Code("AUTH_INVALID_HASH").With("scheme", "bcrypt").Wrap(err)
		}
		return true, nil
	}

	d, err := parseDigest(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), d.salt, d.params.Time, d.params.MemKiB, d.params.Threads, uint32(len(d.key)))

	return subtle.ConstantTimeCompare(computed, d.key) == 1, nil
}

// NeedsUpgrade reports whether the digest was produced by another scheme or
// with parameters different from the current ones.
func (h *Argon2id) NeedsUpgrade(digest string) bool {
	d, err := parseDigest(digest)
	if err != nil {
		return true
	}
	return d.params != h.params
}

type parsedDigest struct {
	params Params
	salt   []byte
	key    []byte
}

func parseDigest(digest string) (parsedDigest, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return parsedDigest{}, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return parsedDigest{}, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return parsedDigest{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return parsedDigest{}, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return parsedDigest{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return parsedDigest{}, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d out of range", threads)
	}
	if time == 0 || memory == 0 {
		return parsedDigest{}, oops.Code("AUTH_INVALID_HASH").Errorf("cost parameters must be positive")
	}
	if memory > maxMemKiB || time > maxTime {
		return parsedDigest{}, oops.Code("AUTH_INVALID_HASH").
			With("memory_kib", memory).
			With("time", time).
			Errorf("cost parameters out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return parsedDigest{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return parsedDigest{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1024 {
		return parsedDigest{}, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(key))
	}

	return parsedDigest{
		params: Params{Time: time, MemKiB: memory, Threads: uint8(threads)},
		salt:   salt,
		key:    key,
	}, nil
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}
