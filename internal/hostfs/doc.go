// Package hostfs provides safe access helpers for files that live on the
// host running the FTP daemon.
//
// When ftpmgr runs in a container the host filesystem is mounted under a
// root directory (for example /host) and every host path is mapped through
// Abs before it is touched:
//
//	/etc/passwd               -> /host/etc/passwd
//	/etc/proftpd/ftpd.passwd  -> /host/etc/proftpd/ftpd.passwd
//	/main                     -> /host/main
//
// Running directly on the host leaves the root at "/".
package hostfs
