// Package usermgr reads and writes colon-delimited account databases.
//
// It covers the host files consulted by ftpmgr:
//
//	/etc/passwd  system identities (discovery, uid/gid resolution)
//	/etc/shadow  operator password hashes
//	/etc/group   operator admin-group membership
//
// and the passwd(5)-shaped AuthUserFile written for ProFTPD.
package usermgr
