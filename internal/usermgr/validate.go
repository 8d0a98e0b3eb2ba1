package usermgr

import "regexp"

var usernameRe = regexp.MustCompile(`^[a-z_][a-z0-9_.-]{0,31}$`)

// ValidUsername enforces passwd-safe account names: lowercase letters,
// digits, underscore, dash and dot, starting with a letter or underscore.
// A valid name can never contain the ':' field separator.
func ValidUsername(u string) bool {
	return usernameRe.MatchString(u)
}
