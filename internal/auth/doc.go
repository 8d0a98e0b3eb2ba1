// Package auth holds the credential primitives of ftpmgr.
//
// FTP user secrets are hashed with crypt(3) schemes ProFTPD's
// mod_auth_file understands (see Hasher). Operators of the admin panel log
// in with their host account: the hash in /etc/shadow is checked first and
// su(1) is used for formats the crypt library cannot verify. Admin rights
// come from membership in one of the configured host groups. Sessions are
// HS256 JWTs.
package auth
