package usermgr

import (
	"strconv"
	"strings"
)

// FormatPasswdEntry renders one passwd(5) line including the newline.
func FormatPasswdEntry(e PasswdEntry) string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte(':')
	b.WriteString(e.Passwd)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(e.UID))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(e.GID))
	b.WriteByte(':')
	b.WriteString(e.Gecos)
	b.WriteByte(':')
	b.WriteString(e.Home)
	b.WriteByte(':')
	b.WriteString(e.Shell)
	b.WriteByte('\n')
	return b.String()
}
