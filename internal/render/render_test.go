package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hnrobert/ftpmgr/internal/model"
)

func testRenderer() *Renderer {
	return New(Options{
		PasswdPath: "/etc/proftpd/ftpd.passwd",
		DefaultUID: DefaultUID,
		DefaultGID: DefaultGID,
		Owners:     map[string]Owner{"www-data": {UID: 33, GID: 33}},
	})
}

func aliceSnapshot() model.Snapshot {
	return model.Snapshot{
		Users: []model.User{
			{ID: 2, Username: "bob", PasswordHash: "$6$bbbbbbbbbbbbbbbb$hashb", SystemUser: "www-data", Active: false},
			{ID: 1, Username: "alice", PasswordHash: "$6$aaaaaaaaaaaaaaaa$hasha", SystemUser: "1001", Active: true},
			{ID: 3, Username: "carol", SystemUser: "nobody-known", Active: true},
		},
		Folders: []model.Folder{
			{ID: 20, Name: "Empty", Path: "/srv/empty"},
			{ID: 10, Name: "Data", Path: "/srv/data"},
		},
		Access: []model.Access{
			{UserID: 1, FolderID: 10, Permission: model.PermWrite},
			{UserID: 2, FolderID: 10, Permission: model.PermRead},
			{UserID: 3, FolderID: 10, Permission: model.PermRead},
			{UserID: 2, FolderID: 20, Permission: model.PermWrite},
		},
	}
}

func TestRenderConfig(t *testing.T) {
	got := testRenderer().RenderConfig(aliceSnapshot())

	want := Header + `
AuthUserFile /etc/proftpd/ftpd.passwd
AuthOrder mod_auth_file.c
RequireValidShell off

# Data
<Directory /srv/data>
  <Limit CWD READ DIRS>
    AllowUser alice
    AllowUser carol
    DenyAll
  </Limit>
  <Limit WRITE>
    AllowUser alice
    DenyAll
  </Limit>
</Directory>

# Empty
<Directory /srv/empty>
  <Limit ALL>
    DenyAll
  </Limit>
</Directory>
`
	assert.Equal(t, want, got)
}

func TestRenderCredentials(t *testing.T) {
	got := testRenderer().RenderCredentials(aliceSnapshot())
	want := "alice:$6$aaaaaaaaaaaaaaaa$hasha:1001:1001::/:/sbin/nologin\n" +
		"bob:!$6$bbbbbbbbbbbbbbbb$hashb:33:33:disabled:/:/sbin/nologin\n" +
		"carol:!:1001:1001::/:/sbin/nologin\n"
	assert.Equal(t, want, got)
}

func TestRenderDeterministic(t *testing.T) {
	r := testRenderer()
	snap := aliceSnapshot()
	first := r.Render(snap)

	// Reverse every slice; output must not depend on input order.
	rev := model.Snapshot{}
	for i := len(snap.Users) - 1; i >= 0; i-- {
		rev.Users = append(rev.Users, snap.Users[i])
	}
	for i := len(snap.Folders) - 1; i >= 0; i-- {
		rev.Folders = append(rev.Folders, snap.Folders[i])
	}
	for i := len(snap.Access) - 1; i >= 0; i-- {
		rev.Access = append(rev.Access, snap.Access[i])
	}

	assert.Equal(t, first, r.Render(snap))
	assert.Equal(t, first, r.Render(rev))
}

func TestRenderEmptySnapshot(t *testing.T) {
	docs := testRenderer().Render(model.Snapshot{})
	assert.Empty(t, docs.Credentials)
	assert.Equal(t, Header+"\nAuthUserFile /etc/proftpd/ftpd.passwd\nAuthOrder mod_auth_file.c\nRequireValidShell off\n", docs.Config)
}

func TestQuotePathsWithSpaces(t *testing.T) {
	snap := model.Snapshot{Folders: []model.Folder{{ID: 1, Path: "/srv/shared files"}}}
	assert.Contains(t, testRenderer().RenderConfig(snap), `<Directory "/srv/shared files">`)
}
