package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GehirnInc/crypt/sha512_crypt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHostFiles(t *testing.T) *Operators {
	t.Helper()
	dir := t.TempDir()

	adminHash, err := sha512_crypt.New().Generate([]byte("adminpw"), nil)
	require.NoError(t, err)
	bobHash, err := sha512_crypt.New().Generate([]byte("bobpw"), nil)
	require.NoError(t, err)

	shadow := "admin:" + adminHash + ":19000:0:99999:7:::\n" +
		"bob:" + bobHash + ":19000:0:99999:7:::\n" +
		"locked:!" + bobHash + ":19000::::::\n" +
		"yes:$y$j9T$abc$def:19000::::::\n"
	group := "sudo:x:27:admin\nusers:x:100:bob\n"

	o := &Operators{
		ShadowPath:  filepath.Join(dir, "shadow"),
		GroupPath:   filepath.Join(dir, "group"),
		AdminGroups: DefaultAdminGroups,
	}
	require.NoError(t, os.WriteFile(o.ShadowPath, []byte(shadow), 0o600))
	require.NoError(t, os.WriteFile(o.GroupPath, []byte(group), 0o644))
	return o
}

func TestOperatorsLogin(t *testing.T) {
	o := writeHostFiles(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		user, pw string
		want     error
	}{
		{name: "admin ok", user: "admin", pw: "adminpw"},
		{name: "wrong password", user: "admin", pw: "nope", want: ErrInvalidCredentials},
		{name: "unknown user", user: "ghost", pw: "x", want: ErrInvalidCredentials},
		{name: "not admin", user: "bob", pw: "bobpw", want: ErrNotAdmin},
		{name: "locked", user: "locked", pw: "bobpw", want: ErrUserLocked},
		{name: "yescrypt without su", user: "yes", pw: "x", want: ErrUnsupportedHash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := o.Login(ctx, tt.user, tt.pw)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.NotEmpty(t, HumanAuthError(err))
		})
	}
}

func TestSessionRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := IssueSession(secret, "admin", true, time.Minute)
	require.NoError(t, err)

	claims, err := ParseSession(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Operator())
	assert.True(t, claims.Admin)
	assert.NotEmpty(t, claims.ID)

	_, err = ParseSession([]byte("other"), tok)
	assert.Error(t, err)

	defaulted, err := IssueSession(secret, "admin", true, -time.Hour)
	require.NoError(t, err)
	// non-positive ttl falls back to the default lifetime
	claims, err = ParseSession(secret, defaulted)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt.Time, time.Minute)

	_, err = IssueSession(secret, "", true, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidSession)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "admin", Issuer: DefaultIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseSession(secret, unsigned)
	assert.Error(t, err)
}
