package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/ftpmgr/internal/auth"
	"github.com/hnrobert/ftpmgr/internal/config"
	"github.com/hnrobert/ftpmgr/internal/model"
	"github.com/hnrobert/ftpmgr/internal/store"
)

type fixture struct {
	dir    string
	config string
	dsn    string
}

// newFixture writes a config pointing every path into a temp dir and seeds
// the database with one user and one shared folder.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{dir: dir, config: filepath.Join(dir, "ftpmgr.yaml"), dsn: filepath.Join(dir, "ftpmgr.db")}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "passwd"),
		[]byte("root:x:0:0::/root:/bin/sh\njohn.doe:x:1002:1002::/home/john.doe:/bin/sh\n"), 0o644))
	cfg := fmt.Sprintf(`host_root: /
database:
  type: sqlite
  dsn: %s
proftpd:
  config_dir: %s
  validate_cmd: "true"
  restart_cmd: "true"
discovery:
  identity_file: %s
`, f.dsn, filepath.Join(dir, "proftpd"), filepath.Join(dir, "passwd"))
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0o600))

	ctx := context.Background()
	st, err := store.Open(ctx, store.TypeSQLite, f.dsn)
	require.NoError(t, err)
	defer st.Close()
	h, err := auth.NewHasher(auth.AlgSHA512)
	require.NoError(t, err)
	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	u, err := st.CreateUser(ctx, store.UserChanges{Username: "alice", SystemUser: "john.doe", Active: true, PasswordHash: hash})
	require.NoError(t, err)
	folder, err := st.CreateFolder(ctx, model.Folder{Path: "/srv/data"})
	require.NoError(t, err)
	require.NoError(t, st.SetAccess(ctx, u.ID, folder.ID, model.PermWrite))
	return f
}

func (f *fixture) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", f.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (f *fixture) storedHash(t *testing.T, username string) string {
	t.Helper()
	st, err := store.Open(context.Background(), store.TypeSQLite, f.dsn)
	require.NoError(t, err)
	defer st.Close()
	u, err := st.GetUserByName(context.Background(), username)
	require.NoError(t, err)
	return u.PasswordHash
}

func TestDeployCommand(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "", "deploy", "--test", "--restart")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Writing config to: "+filepath.Join(f.dir, "proftpd", "conf.d", "users.conf"))
	assert.Contains(t, out, "Writing passwd to: "+filepath.Join(f.dir, "proftpd", "ftpd.passwd"))
	assert.Contains(t, out, "Configuration files updated.")
	assert.Contains(t, out, "Configuration test passed.")
	assert.Contains(t, out, "ProFTPD service restarted.")

	b, err := os.ReadFile(filepath.Join(f.dir, "proftpd", "ftpd.passwd"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "alice:$6$")
	assert.Contains(t, string(b), ":1002:1002:")

	out, err = f.run(t, "", "deploy", "--restart")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Config unchanged:")
	assert.Contains(t, out, "No changes detected.")
	assert.Contains(t, out, "Skipping restart: no files changed.")
}

func TestDeployDryRun(t *testing.T) {
	f := newFixture(t)
	target := filepath.Join(f.dir, "other")

	out, err := f.run(t, "", "deploy", "--dry-run", "--config-dir", target)
	require.NoError(t, err, out)
	assert.Contains(t, out, "=== DRY RUN MODE ===")
	assert.Contains(t, out, "Would write config to: "+filepath.Join(target, "conf.d", "users.conf"))
	assert.Contains(t, out, "<Directory /srv/data>")
	assert.NoDirExists(t, target)
}

func TestDeployValidationFailure(t *testing.T) {
	f := newFixture(t)
	t.Setenv("FTPMGR_PROFTPD_VALIDATE_CMD", "false")

	out, err := f.run(t, "", "deploy", "--test", "--restart")
	require.Error(t, err)
	assert.Contains(t, out, "Configuration test failed:")
	assert.Contains(t, out, "Skipping restart: blocked by failed validation.")
}

func TestRenderCommand(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "", "render", "passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "alice:$6$"), out)

	out, err = f.run(t, "", "render", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "AuthUserFile "+filepath.Join(f.dir, "proftpd", "ftpd.passwd"))

	_, err = f.run(t, "", "render", "shadow")
	assert.Error(t, err)
}

func TestDiscoverCommands(t *testing.T) {
	f := newFixture(t)
	base := filepath.Join(f.dir, "share")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "pub"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "keys"), 0o755))

	out, err := f.run(t, "", "discover", "dirs", "--base", base, "--exclude", "keys")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "pub")+"\n", out)

	out, err = f.run(t, "", "discover", "users")
	require.NoError(t, err)
	assert.Equal(t, "john.doe\n", out)

	_, err = f.run(t, "", "discover", "users", "--pattern", "([")
	assert.Error(t, err)
}

func TestHashAndPasswdCommands(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "hunter2\n", "hash", "--password-stdin")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "$6$"), out)

	before := f.storedHash(t, "alice")
	out, err = f.run(t, "hunter2\n", "user", "passwd", "alice", "--password-stdin")
	require.NoError(t, err, out)
	assert.NotEqual(t, before, f.storedHash(t, "alice"))

	_, err = f.run(t, "hunter2\n", "user", "passwd", "nobody", "--password-stdin")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.run(t, "\n", "user", "passwd", "alice", "--password-stdin")
	assert.ErrorIs(t, err, errEmptyPassword)
}

func TestConfirmPassword(t *testing.T) {
	tests := []struct {
		name          string
		first, second string
		wantErr       error
	}{
		{name: "match", first: "pw", second: "pw"},
		{name: "mismatch", first: "pw", second: "wp", wantErr: errPasswordMismatch},
		{name: "empty", first: "", second: "", wantErr: errEmptyPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := confirmPassword(tt.first, tt.second)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.first, got)
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, "", "--db-type", "oracle", "render", "passwd")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "ftpmgr.yaml")
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init-config", path})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, path)

	cmd = NewRootCommand()
	cmd.SetArgs([]string{"init-config", path})
	assert.Error(t, cmd.Execute())
}
