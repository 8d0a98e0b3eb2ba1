package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/ftpmgr/internal/auth"
	"github.com/hnrobert/ftpmgr/internal/deploy"
	"github.com/hnrobert/ftpmgr/internal/discovery"
	"github.com/hnrobert/ftpmgr/internal/render"
	"github.com/hnrobert/ftpmgr/internal/store"
)

type fakeOperators struct {
	err error
}

func (f *fakeOperators) Login(context.Context, string, string) error { return f.err }

type okRunner struct{}

func (okRunner) Run(context.Context, []string) (string, error) { return "", nil }

type testEnv struct {
	h       http.Handler
	token   string
	targets deploy.Targets
	base    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, store.TypeSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	hasher, err := auth.NewHasher(auth.AlgSHA512)
	require.NoError(t, err)

	dir := t.TempDir()
	identity := filepath.Join(dir, "passwd")
	require.NoError(t, os.WriteFile(identity, []byte("root:x:0:0::/root:/bin/sh\njohn.doe:x:1002:1002::/home/john.doe:/bin/sh\n"), 0o644))
	base := filepath.Join(dir, "main")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "pub", "docs"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "keys"), 0o755))

	ctl := deploy.New(st, okRunner{}, render.Options{DefaultUID: 1001, DefaultGID: 1001})
	ctl.IdentityFile = identity
	targets := deploy.NewTargets(filepath.Join(dir, "proftpd"), "conf.d/users.conf", "ftpd.passwd")

	secret := []byte("0123456789abcdef")
	app := NewApp(Options{
		Store:     st,
		Deployer:  ctl,
		Targets:   targets,
		Discovery: discovery.New(4, identity),
		Hasher:    hasher,
		Operators: &fakeOperators{},
		Secret:    secret,
	})
	token, err := auth.IssueSession(secret, "admin", true, 0)
	require.NoError(t, err)
	return &testEnv{h: app.Routes(), token: token, targets: targets, base: base}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "no token", token: "", want: http.StatusUnauthorized},
		{name: "garbage token", token: "abc", want: http.StatusUnauthorized},
		{name: "valid token", token: env.token, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := *env
			e.token = tt.token
			assert.Equal(t, tt.want, e.do(t, http.MethodGet, "/api/users", nil).Code)
		})
	}

	nonAdmin, err := auth.IssueSession([]byte("0123456789abcdef"), "bob", false, 0)
	require.NoError(t, err)
	e := *env
	e.token = nonAdmin
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/api/users", nil).Code)

	e.token = ""
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/healthz", nil).Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	rec := env.do(t, http.MethodPost, "/api/login", loginRequest{Username: "admin", Password: "pw"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[loginResponse](t, rec)
	assert.NotEmpty(t, resp.Token)
	require.NotEmpty(t, rec.Result().Cookies())
	assert.Equal(t, auth.DefaultCookieName, rec.Result().Cookies()[0].Name)

	rec = env.do(t, http.MethodPost, "/api/login", loginRequest{Username: "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserCRUDAndOmissionSafety(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users", map[string]any{"username": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[userResponse](t, rec)
	assert.True(t, created.HasPassword)
	assert.True(t, created.Active)
	assert.NotContains(t, rec.Body.String(), "$6$", "hashes must never be returned")

	rec = env.do(t, http.MethodPost, "/api/users", map[string]any{"username": "alice"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users", map[string]any{"username": "Bad Name"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	before := env.credentials(t)
	path := "/api/users/" + itoa(created.ID)
	rec = env.do(t, http.MethodPut, path, map[string]any{"systemuser": "john.doe", "is_active": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	after := env.credentials(t)
	assert.Equal(t, hashOf(before, "alice"), hashOf(after, "alice"), "update without password keeps the hash")
	assert.Contains(t, after, ":1002:1002:")

	rec = env.do(t, http.MethodPut, path, map[string]any{"password": "new"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, hashOf(after, "alice"), hashOf(env.credentials(t), "alice"))

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/users/abc", nil).Code)
}

func (e *testEnv) credentials(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/api/config/download-users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="ftpd.passwd"`)
	return rec.Body.String()
}

func hashOf(doc, user string) string {
	for _, line := range strings.Split(doc, "\n") {
		parts := strings.Split(line, ":")
		if len(parts) == 7 && parts[0] == user {
			return parts[1]
		}
	}
	return ""
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestFoldersAccessAndDeploy(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users", map[string]any{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusCreated, rec.Code)
	alice := decode[userResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/folders", folderRequest{Name: "Data", Path: "/srv/data", Description: "**team** files"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	folder := decode[folderResponse](t, rec)
	assert.Contains(t, folder.DescriptionHTML, "<strong>team</strong>")

	rec = env.do(t, http.MethodPost, "/api/folders", folderRequest{Path: "/srv/data"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/users/"+itoa(alice.ID)+"/access", map[string]any{
		"access": map[string]string{itoa(folder.ID): "write"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/api/users/"+itoa(alice.ID)+"/access", map[string]any{
		"access": map[string]string{itoa(folder.ID): "owner"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/config/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[previewResponse](t, rec)
	assert.Contains(t, preview.Config, "<Directory /srv/data>")
	assert.Contains(t, preview.Config, "AllowUser alice")

	rec = env.do(t, http.MethodPost, "/api/deploy", deploy.Options{Restart: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[deployResponse](t, rec)
	assert.True(t, resp.Result.Changed)
	assert.Equal(t, deploy.RestartSucceeded, resp.Result.Restart.Status)

	b, err := os.ReadFile(env.targets.PasswdPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "alice:$6$"))

	rec = env.do(t, http.MethodPost, "/api/deploy", deploy.Options{Restart: true})
	resp = decode[deployResponse](t, rec)
	assert.Equal(t, deploy.RestartSkipped, resp.Result.Restart.Status)

	rec = env.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.Stats{Users: 1, ActiveUsers: 1, Folders: 1, AccessRules: 1}, decode[store.Stats](t, rec))

	revoke := "/api/users/" + itoa(alice.ID) + "/access/" + itoa(folder.ID)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, revoke, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, revoke, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodDelete, "/api/users/"+itoa(alice.ID)+"/access/x", nil).Code)
	rec = env.do(t, http.MethodGet, "/api/config/preview", nil)
	assert.NotContains(t, decode[previewResponse](t, rec).Config, "AllowUser alice")

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/folders/"+itoa(folder.ID), nil).Code)
	rec = env.do(t, http.MethodGet, "/api/users/"+itoa(alice.ID), nil)
	assert.Empty(t, decode[userResponse](t, rec).Access)
}

func TestProfileAndDiscovery(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/main/", decode[map[string]string](t, rec)["basedir"])

	rec = env.do(t, http.MethodPut, "/api/profile", profileRequest{BaseDir: env.base, ExcludeDirs: "keys", SystemUserRegexp: "(["})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/profile", profileRequest{BaseDir: env.base, ExcludeDirs: "keys", SystemUserRegexp: `.*\..*`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/discover/directories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dirs := decode[directoriesResponse](t, rec)
	assert.Empty(t, dirs.Error)
	assert.Equal(t, []string{filepath.Join(env.base, "pub"), filepath.Join(env.base, "pub", "docs")}, dirs.Directories)

	rec = env.do(t, http.MethodGet, "/api/discover/systemusers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"john.doe"}, decode[systemUsersResponse](t, rec).Users)

	rec = env.do(t, http.MethodPut, "/api/profile", profileRequest{BaseDir: filepath.Join(env.base, "missing"), SystemUserRegexp: ".*"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/discover/directories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dirs = decode[directoriesResponse](t, rec)
	assert.NotEmpty(t, dirs.Error)
	assert.Equal(t, []string{}, dirs.Directories)
}
