package usermgr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePasswd = `root:x:0:0:root:/root:/bin/bash
# comment line
ftp:x:1001:1001::/srv/ftp:/usr/sbin/nologin
broken-line
john.doe:x:1002:100:John:/home/john.doe:/bin/bash

`

func TestParsePasswdKeepsUnparsedLines(t *testing.T) {
	f, err := ParsePasswd(strings.NewReader(samplePasswd))
	require.NoError(t, err)

	names := []string{}
	for _, e := range f.List() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"root", "ftp", "john.doe"}, names)
	assert.Equal(t, samplePasswd, string(f.Bytes()))
}

func TestOwner(t *testing.T) {
	f, err := ParsePasswd(strings.NewReader(samplePasswd))
	require.NoError(t, err)

	tests := []struct {
		ref      string
		uid, gid int
		ok       bool
	}{
		{ref: "ftp", uid: 1001, gid: 1001, ok: true},
		{ref: "1002", uid: 1002, gid: 100, ok: true},
		{ref: "4242", uid: 4242, gid: 4242, ok: true},
		{ref: "nobody-here", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			uid, gid, ok := f.Owner(tt.ref)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.uid, uid)
				assert.Equal(t, tt.gid, gid)
			}
		})
	}
}

func TestFormatPasswdEntry(t *testing.T) {
	got := FormatPasswdEntry(PasswdEntry{
		Name: "alice", Passwd: "$6$salt$digest", UID: 1001, GID: 1001, Home: "/", Shell: "/sbin/nologin",
	})
	assert.Equal(t, "alice:$6$salt$digest:1001:1001::/:/sbin/nologin\n", got)
}

func TestReadRecords(t *testing.T) {
	recs, err := ReadRecords(strings.NewReader("a:1\n\n  # x\nb::2\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "1"}, {"b", "", "2"}}, recs)
}

func TestShadowAndGroup(t *testing.T) {
	dir := t.TempDir()
	shadow := filepath.Join(dir, "shadow")
	group := filepath.Join(dir, "group")
	require.NoError(t, os.WriteFile(shadow, []byte("root:!:19000::::::\nadmin:$6$s$h:19000:0:99999:7:::\n"), 0o600))
	require.NoError(t, os.WriteFile(group, []byte("sudo:x:27:admin,bob\nusers:x:100:\n"), 0o644))

	sf, err := LoadShadow(shadow)
	require.NoError(t, err)
	assert.True(t, sf.Find("root").Locked())
	assert.False(t, sf.Find("admin").Locked())
	assert.Nil(t, sf.Find("missing"))

	gf, err := LoadGroup(group)
	require.NoError(t, err)
	assert.True(t, gf.MemberOfAny("bob", []string{"wheel", "sudo"}))
	assert.False(t, gf.MemberOfAny("carol", []string{"sudo", "users"}))
	assert.Empty(t, gf.Find("users").Members)
}

func TestValidUsername(t *testing.T) {
	assert.True(t, ValidUsername("john.doe"))
	assert.True(t, ValidUsername("_svc"))
	assert.False(t, ValidUsername("John"))
	assert.False(t, ValidUsername("a:b"))
	assert.False(t, ValidUsername(""))
}

func TestGroupSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "group")
	require.NoError(t, os.WriteFile(path, []byte("broken:x:abc:eve\nwheel:x:10: alice , \nwheel:x:11:mallory\n"), 0o644))

	gf, err := LoadGroup(path)
	require.NoError(t, err)
	assert.Nil(t, gf.Find("broken"))
	assert.Equal(t, []string{"alice"}, gf.Find("wheel").Members)
	assert.False(t, gf.MemberOfAny("mallory", []string{"wheel"}))
}
