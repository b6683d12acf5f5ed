package session

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/samber/oops"
)

// TokenBytes is the amount of entropy in a session token.
const TokenBytes = 32

// generateToken returns a random hex token and the hash stored in its place.
func generateToken(entropy io.Reader) (token, hash string, err error) {
	buf := make([]byte, TokenBytes)
	if _, err = io.ReadFull(entropy, buf); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "read entropy").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken computes the SHA-256 hash under which a token is persisted.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
