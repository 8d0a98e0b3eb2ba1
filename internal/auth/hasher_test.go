package auth

import (
	"strings"
	"testing"

	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHasher(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: AlgSHA512},
		{name: "sha512", want: AlgSHA512},
		{name: "SHA256", want: AlgSHA256},
		{name: "md5", wantErr: true},
		{name: "bcrypt", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHasher(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Algorithm())
		})
	}
}

func TestHashSaltsDiffer(t *testing.T) {
	h, err := NewHasher(AlgSHA512)
	require.NoError(t, err)

	a, err := h.Hash("s3cret")
	require.NoError(t, err)
	b, err := h.Hash("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	for _, out := range []string{a, b} {
		require.True(t, strings.HasPrefix(out, "$6$"), out)
		parts := strings.Split(out, "$")
		require.Len(t, parts, 4)
		assert.Len(t, parts[2], 16)
		assert.NotContains(t, out, ":")
		assert.NoError(t, sha512_crypt.New().Verify(out, []byte("s3cret")))
		assert.Error(t, sha512_crypt.New().Verify(out, []byte("wrong")))
	}
}

func TestHashSHA256(t *testing.T) {
	h, err := NewHasher(AlgSHA256)
	require.NoError(t, err)
	out, err := h.Hash("pw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "$5$"))
	assert.NoError(t, sha256_crypt.New().Verify(out, []byte("pw")))
}
