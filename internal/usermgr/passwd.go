package usermgr

import (
	"bytes"
	"io"
	"strconv"

	"github.com/hnrobert/ftpmgr/internal/hostfs"
)

type PasswdFile struct {
	pf parsedFile[PasswdEntry]
}

func LoadPasswd(path string) (*PasswdFile, error) {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePasswd(bytes.NewReader(b))
}

// ParsePasswd parses passwd(5) lines. Lines that do not carry seven
// fields with numeric ids are preserved verbatim instead of failing the
// whole file.
func ParsePasswd(r io.Reader) (*PasswdFile, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	var pf parsedFile[PasswdEntry]
	for _, line := range lines {
		if isSkippable(line) {
			pf.lines = append(pf.lines, rawLine[PasswdEntry]{raw: line})
			continue
		}
		parts := parseColonLine(line)
		if len(parts) < 7 {
			pf.lines = append(pf.lines, rawLine[PasswdEntry]{raw: line})
			continue
		}
		uid, err := atoi(parts[2], "passwd.uid")
		if err != nil {
			pf.lines = append(pf.lines, rawLine[PasswdEntry]{raw: line})
			continue
		}
		gid, err := atoi(parts[3], "passwd.gid")
		if err != nil {
			pf.lines = append(pf.lines, rawLine[PasswdEntry]{raw: line})
			continue
		}
		e := PasswdEntry{
			Name:   parts[0],
			Passwd: parts[1],
			UID:    uid,
			GID:    gid,
			Gecos:  parts[4],
			Home:   parts[5],
			Shell:  parts[6],
		}
		pf.lines = append(pf.lines, rawLine[PasswdEntry]{entry: &e})
	}

	return &PasswdFile{pf: pf}, nil
}

func (f *PasswdFile) Find(name string) *PasswdEntry {
	for _, e := range f.pf.entries() {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (f *PasswdFile) List() []PasswdEntry {
	out := make([]PasswdEntry, 0)
	for _, e := range f.pf.entries() {
		out = append(out, *e)
	}
	return out
}

// Owner resolves a system account reference, either a name or a numeric
// uid, to the uid/gid pair that owns files written by that account.
func (f *PasswdFile) Owner(ref string) (uid, gid int, ok bool) {
	if e := f.Find(ref); e != nil {
		return e.UID, e.GID, true
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, 0, false
	}
	for _, e := range f.pf.entries() {
		if e.UID == n {
			return e.UID, e.GID, true
		}
	}
	return n, n, true
}

func (f *PasswdFile) Bytes() []byte {
	var buf bytes.Buffer
	for _, ln := range f.pf.lines {
		if ln.entry != nil {
			buf.WriteString(FormatPasswdEntry(*ln.entry))
			continue
		}
		buf.WriteString(ln.raw)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
