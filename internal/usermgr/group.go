package usermgr

import (
	"strconv"
	"strings"
)

// GroupFile is a read-only view of group(5). Lines with a non-numeric gid
// are ignored rather than failing the whole file.
type GroupFile struct {
	byName map[string]*GroupEntry
}

func LoadGroup(path string) (*GroupFile, error) {
	recs, err := loadRecords(path)
	if err != nil {
		return nil, err
	}
	f := &GroupFile{byName: make(map[string]*GroupEntry, len(recs))}
	for _, r := range recs {
		if len(r) < 4 || r[0] == "" {
			continue
		}
		gid, err := strconv.Atoi(r[2])
		if err != nil {
			continue
		}
		if _, dup := f.byName[r[0]]; dup {
			continue
		}
		var members []string
		for _, m := range strings.Split(r[3], ",") {
			if m = strings.TrimSpace(m); m != "" {
				members = append(members, m)
			}
		}
		f.byName[r[0]] = &GroupEntry{Name: r[0], Passwd: r[1], GID: gid, Members: members}
	}
	return f, nil
}

func (f *GroupFile) Find(name string) *GroupEntry {
	return f.byName[name]
}

// MemberOfAny reports whether user is listed in any of the named groups.
func (f *GroupFile) MemberOfAny(user string, groups []string) bool {
	for _, name := range groups {
		g := f.byName[name]
		if g == nil {
			continue
		}
		for _, m := range g.Members {
			if m == user {
				return true
			}
		}
	}
	return false
}
