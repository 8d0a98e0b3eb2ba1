// Package render turns a snapshot of the access model into the two text
// artifacts ProFTPD reads: the AuthUserFile and a configuration fragment
// with one <Directory> block per shared folder.
//
// Rendering is pure. The same snapshot and Options always produce the same
// bytes, which is what lets the deploy step compare against disk.
package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hnrobert/ftpmgr/internal/model"
	"github.com/hnrobert/ftpmgr/internal/usermgr"
)

const (
	DefaultHome  = "/"
	DefaultShell = "/sbin/nologin"
	DefaultUID   = 1001
	DefaultGID   = 1001

	// LockPrefix disables a credential without losing it.
	LockPrefix = "!"
	// DisabledGecos marks inactive users in the AuthUserFile.
	DisabledGecos = "disabled"

	Header = "# Generated by ftpmgr. Changes made here are overwritten on the next deploy.\n"
)

type Owner struct {
	UID int
	GID int
}

type Options struct {
	// PasswdPath is the AuthUserFile location as seen by the daemon.
	PasswdPath string
	DefaultUID int
	DefaultGID int
	Home       string
	Shell      string
	// Owners maps system account names to ids, resolved from the identity
	// database by the caller.
	Owners map[string]Owner
}

type Renderer struct {
	opts Options
}

type Documents struct {
	Config      string `json:"config"`
	Credentials string `json:"credentials"`
}

func New(opts Options) *Renderer {
	if opts.Home == "" {
		opts.Home = DefaultHome
	}
	if opts.Shell == "" {
		opts.Shell = DefaultShell
	}
	return &Renderer{opts: opts}
}

func (r *Renderer) Render(snap model.Snapshot) Documents {
	return Documents{Config: r.RenderConfig(snap), Credentials: r.RenderCredentials(snap)}
}

// RenderCredentials emits one passwd(5) line per user, sorted by username.
// Inactive users keep their line with a locked hash.
func (r *Renderer) RenderCredentials(snap model.Snapshot) string {
	users := append([]model.User(nil), snap.Users...)
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	var b strings.Builder
	for _, u := range users {
		uid, gid := r.owner(u.SystemUser)
		e := usermgr.PasswdEntry{
			Name:   u.Username,
			Passwd: u.PasswordHash,
			UID:    uid,
			GID:    gid,
			Home:   r.opts.Home,
			Shell:  r.opts.Shell,
		}
		if !u.HasPassword() {
			e.Passwd = LockPrefix
		} else if !u.Active {
			e.Passwd = LockPrefix + u.PasswordHash
		}
		if !u.Active {
			e.Gecos = DisabledGecos
		}
		b.WriteString(usermgr.FormatPasswdEntry(e))
	}
	return b.String()
}

func (r *Renderer) owner(systemUser string) (int, int) {
	systemUser = strings.TrimSpace(systemUser)
	if o, ok := r.opts.Owners[systemUser]; ok {
		return o.UID, o.GID
	}
	if n, err := strconv.Atoi(systemUser); err == nil && n >= 0 {
		return n, n
	}
	return r.opts.DefaultUID, r.opts.DefaultGID
}

type grants struct {
	read  []string
	write []string
}

// RenderConfig emits the daemon configuration fragment. Folders are sorted
// by path, AllowUser lines by username.
func (r *Renderer) RenderConfig(snap model.Snapshot) string {
	active := map[int64]string{}
	for _, u := range snap.Users {
		if u.Active {
			active[u.ID] = u.Username
		}
	}

	byFolder := map[int64]*grants{}
	for _, a := range snap.Access {
		name, ok := active[a.UserID]
		if !ok {
			continue
		}
		g := byFolder[a.FolderID]
		if g == nil {
			g = &grants{}
			byFolder[a.FolderID] = g
		}
		g.read = append(g.read, name)
		if a.Permission.CanWrite() {
			g.write = append(g.write, name)
		}
	}

	folders := append([]model.Folder(nil), snap.Folders...)
	sort.Slice(folders, func(i, j int) bool { return folders[i].Path < folders[j].Path })

	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n")
	b.WriteString("AuthUserFile " + quote(r.opts.PasswdPath) + "\n")
	b.WriteString("AuthOrder mod_auth_file.c\n")
	b.WriteString("RequireValidShell off\n")

	for _, f := range folders {
		b.WriteString("\n")
		if name := oneLine(f.Name); name != "" {
			b.WriteString("# " + name + "\n")
		}
		b.WriteString("<Directory " + quote(f.Path) + ">\n")
		g := byFolder[f.ID]
		if g == nil || len(g.read) == 0 {
			writeLimit(&b, "ALL", nil)
		} else {
			writeLimit(&b, "CWD READ DIRS", g.read)
			writeLimit(&b, "WRITE", g.write)
		}
		b.WriteString("</Directory>\n")
	}
	return b.String()
}

func writeLimit(b *strings.Builder, cmds string, users []string) {
	users = uniqueSorted(users)
	b.WriteString("  <Limit " + cmds + ">\n")
	for _, u := range users {
		b.WriteString("    AllowUser " + u + "\n")
	}
	b.WriteString("    DenyAll\n")
	b.WriteString("  </Limit>\n")
}

func uniqueSorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	j := 0
	for i, s := range out {
		if i > 0 && s == out[j-1] {
			continue
		}
		out[j] = s
		j++
	}
	return out[:j]
}

func quote(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return strconv.Quote(s)
	}
	return s
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
