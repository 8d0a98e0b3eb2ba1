package usermgr

import (
	"bytes"

	"github.com/hnrobert/ftpmgr/internal/hostfs"
)

// ShadowFile is a read-only view of shadow(5) indexed by login name.
// When a name repeats, the first line wins, as with getspnam(3).
type ShadowFile struct {
	byName map[string]*ShadowEntry
}

// loadRecords reads path through hostfs and splits it into records.
func loadRecords(path string) ([][]string, error) {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadRecords(bytes.NewReader(b))
}

func LoadShadow(path string) (*ShadowFile, error) {
	recs, err := loadRecords(path)
	if err != nil {
		return nil, err
	}
	f := &ShadowFile{byName: make(map[string]*ShadowEntry, len(recs))}
	for _, r := range recs {
		if len(r) < 2 || r[0] == "" {
			continue
		}
		if _, dup := f.byName[r[0]]; dup {
			continue
		}
		field := func(i int) string {
			if i < len(r) {
				return r[i]
			}
			return ""
		}
		f.byName[r[0]] = &ShadowEntry{
			Name:       r[0],
			Hash:       r[1],
			LastChange: field(2),
			Min:        field(3),
			Max:        field(4),
			Warn:       field(5),
			Inactive:   field(6),
			Expire:     field(7),
			Reserved:   field(8),
		}
	}
	return f, nil
}

func (f *ShadowFile) Find(name string) *ShadowEntry {
	return f.byName[name]
}
