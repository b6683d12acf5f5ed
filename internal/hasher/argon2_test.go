package hasher

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/authd/internal/model"
)

var testParams = Params{Time: 1, MemKiB: 64, Threads: 1}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestArgon2id_Hash(t *testing.T) {
	h := NewArgon2id(testParams)

	t.Run("produces phc digest", func(t *testing.T) {
		digest, err := h.Hash("Str0ngP@ss")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(digest, "$argon2id$v=19$m=64,t=1,p=1$"))
		assert.NotContains(t, digest, "Str0ngP@ss")
	})

	t.Run("same password produces different digests", func(t *testing.T) {
		d1, err := h.Hash("samepassword")
		require.NoError(t, err)
		d2, err := h.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, d1, d2)
	})

	t.Run("entropy failure is a hash error", func(t *testing.T) {
		broken := NewArgon2id(testParams)
		broken.entropy = failingReader{}

		_, err := broken.Hash("whatever")
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrHash)
	})
}

func TestArgon2id_Verify(t *testing.T) {
	h := NewArgon2id(testParams)
	digest, err := h.Hash("correct horse")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		digest   string
		want     bool
		wantErr  bool
	}{
		{name: "correct password", password: "correct horse", digest: digest, want: true},
		{name: "wrong password", password: "battery staple", digest: digest, want: false},
		{name: "empty password", password: "", digest: digest, want: false},
		{name: "garbage digest", password: "x", digest: "not-a-hash", wantErr: true},
		{name: "unknown algorithm", password: "x", digest: "$argon2i$v=19$m=64,t=1,p=1$AAAA$AAAA", wantErr: true},
		{name: "bad version", password: "x", digest: "$argon2id$v=16$m=64,t=1,p=1$AAAA$AAAA", wantErr: true},
		{name: "bad params", password: "x", digest: "$argon2id$v=19$m=64,t=1$AAAA$AAAA", wantErr: true},
		{name: "too many threads", password: "x", digest: "$argon2id$v=19$m=64,t=1,p=300$AAAA$AAAA", wantErr: true},
		{name: "memory above limit", password: "x", digest: "$argon2id$v=19$m=4294967295,t=1,p=1$AAAA$AAAA", wantErr: true},
		{name: "memory just above limit", password: "x", digest: "$argon2id$v=19$m=4194305,t=1,p=1$AAAA$AAAA", wantErr: true},
		{name: "time above limit", password: "x", digest: "$argon2id$v=19$m=64,t=65,p=1$AAAA$AAAA", wantErr: true},
		{name: "bad salt encoding", password: "x", digest: "$argon2id$v=19$m=64,t=1,p=1$!!!$AAAA", wantErr: true},
		{name: "empty key", password: "x", digest: "$argon2id$v=19$m=64,t=1,p=1$AAAA$", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify(tt.password, tt.digest)
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestArgon2id_VerifyWithOtherParams(t *testing.T) {
	old := NewArgon2id(Params{Time: 2, MemKiB: 128, Threads: 2})
	digest, err := old.Hash("password")
	require.NoError(t, err)

	current := NewArgon2id(testParams)
	ok, err := current.Verify("password", digest)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, current.NeedsUpgrade(digest))
}

func TestArgon2id_VerifyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	h := NewArgon2id(testParams)

	ok, err := h.Verify("legacy-pass", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("other-pass", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, h.NeedsUpgrade(string(legacy)))
}

func TestArgon2id_NeedsUpgrade(t *testing.T) {
	h := NewArgon2id(testParams)
	digest, err := h.Hash("password")
	require.NoError(t, err)

	assert.False(t, h.NeedsUpgrade(digest))
	assert.True(t, h.NeedsUpgrade("garbage"))
}

func TestNewArgon2id_Defaults(t *testing.T) {
	h := NewArgon2id(Params{})
	assert.Equal(t, DefaultParams, h.Params())
}

func TestArgon2id_VerifyRejectsExcessiveCost(t *testing.T) {
	h := NewArgon2id(testParams)

	ok, err := h.Verify("x", "$argon2id$v=19$m=4294967295,t=4294967295,p=1$AAAA$AAAA")
	require.ErrorContains(t, err, "cost parameters out of range")
	assert.False(t, ok)
}
